package bot

import (
	"context"

	"github.com/xtreemtech/twitter-engagement-bot/internal/models"
)

// PostResult is the structured outcome of a posting action.
type PostResult struct {
	Success   bool   `json:"success"`
	Content   string `json:"content,omitempty"`
	TweetID   string `json:"tweet_id,omitempty"`
	WithImage bool   `json:"with_image"`
	Error     string `json:"error,omitempty"`
}

// Post publishes one piece of campaign content. When useImage is set and the
// image pool is non-empty the next campaign image is attached; any failure on
// the image path degrades to a text-only post instead of aborting.
func (c *Controller) Post(ctx context.Context, useImage bool) PostResult {
	c.actionMu.Lock()
	defer c.actionMu.Unlock()

	client, err := c.ensureClient(ctx)
	if err != nil {
		return PostResult{Error: err.Error()}
	}

	if ok, reason := c.limits.CanPost(); !ok {
		c.log.Info().Str("reason", reason).Msg("Post denied by throttle")
		c.activity.Append("Post denied: %s", reason)
		return PostResult{Error: reason}
	}

	content, aiGenerated, err := c.pickContent(ctx)
	if err != nil {
		c.activity.Append("Post failed: %v", err)
		return PostResult{Error: err.Error()}
	}

	var (
		mediaIDs  []string
		withImage bool
		imageURL  string
	)
	if useImage && c.cfg.Publishing.AttachImages && c.images.Size() > 0 {
		if ref, ok := c.images.Next(); ok {
			if id, err := c.attachImage(ctx, client, ref); err != nil {
				c.log.Warn().Err(err).Str("image", ref).Msg("Image attachment failed, posting text-only")
				c.activity.Append("Image attach failed, falling back to text-only: %v", err)
			} else {
				mediaIDs = []string{id}
				withImage = true
				imageURL = ref
			}
		}
	}

	tweetID, err := client.PostTweet(ctx, c.cfg.Publishing.Strategies, content, mediaIDs)
	if err != nil {
		c.log.Error().Err(err).Msg("Post failed")
		c.activity.Append("Post failed: %v", err)
		c.recordPostHistory(ctx, &models.PostRecord{
			Content:     content,
			WithImage:   withImage,
			ImageURL:    imageURL,
			AIGenerated: aiGenerated,
			Outcome:     models.OutcomeFailed,
			Error:       err.Error(),
		})
		return PostResult{Content: content, WithImage: withImage, Error: err.Error()}
	}

	c.limits.RecordPost()
	c.stats.RecordPost()
	c.activity.Append("Posted tweet %s (image: %v)", tweetID, withImage)
	c.recordPostHistory(ctx, &models.PostRecord{
		Content:     content,
		TweetID:     tweetID,
		WithImage:   withImage,
		ImageURL:    imageURL,
		AIGenerated: aiGenerated,
		Outcome:     models.OutcomeSuccess,
	})

	c.log.WithTweetID(tweetID).Info().
		Bool("with_image", withImage).
		Bool("ai_generated", aiGenerated).
		Msg("Posted campaign content")

	return PostResult{Success: true, Content: content, TweetID: tweetID, WithImage: withImage}
}

// pickContent chooses the tweet text: AI generation when enabled, falling
// back to the rotation pool on any generation failure.
func (c *Controller) pickContent(ctx context.Context) (content string, aiGenerated bool, err error) {
	if c.gen != nil {
		generated, genErr := c.gen.GenerateTweet(ctx, c.cfg.Campaign.UTMLink)
		if genErr == nil {
			return generated, true, nil
		}
		c.log.Warn().Err(genErr).Msg("AI generation failed, falling back to content pool")
		c.activity.Append("AI generation failed, using content pool: %v", genErr)
	}

	content, err = c.content.Fresh()
	return content, false, err
}

// attachImage fetches the image bytes and uploads them as tweet media.
func (c *Controller) attachImage(ctx context.Context, client SocialClient, ref string) (string, error) {
	data, err := c.fetchImage(ctx, ref)
	if err != nil {
		return "", err
	}
	return client.UploadMedia(ctx, data)
}

// recordPostHistory persists the attempt, best-effort.
func (c *Controller) recordPostHistory(ctx context.Context, record *models.PostRecord) {
	if c.repo == nil {
		return
	}
	if err := c.repo.CreatePostRecord(ctx, record); err != nil {
		c.log.Warn().Err(err).Msg("Failed to persist post record")
	}
}
