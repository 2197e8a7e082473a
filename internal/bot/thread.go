package bot

import (
	"context"

	"github.com/xtreemtech/twitter-engagement-bot/internal/models"
)

// PostThread publishes an AI-generated educational thread: a starter tweet
// followed by replies chained under it. Threads count against the same post
// spacing as regular posts.
func (c *Controller) PostThread(ctx context.Context) PostResult {
	c.actionMu.Lock()
	defer c.actionMu.Unlock()

	if c.gen == nil {
		return PostResult{Error: "AI generation is disabled"}
	}

	client, err := c.ensureClient(ctx)
	if err != nil {
		return PostResult{Error: err.Error()}
	}

	if ok, reason := c.limits.CanPost(); !ok {
		c.log.Info().Str("reason", reason).Msg("Thread denied by throttle")
		c.activity.Append("Thread denied: %s", reason)
		return PostResult{Error: reason}
	}

	tweets, err := c.gen.GenerateThread(ctx, c.cfg.Campaign.UTMLink)
	if err != nil || len(tweets) == 0 {
		c.log.Error().Err(err).Msg("Thread generation failed")
		c.activity.Append("Thread generation failed: %v", err)
		return PostResult{Error: "thread generation failed"}
	}

	starterID, err := client.PostTweet(ctx, c.cfg.Publishing.Strategies, tweets[0], nil)
	if err != nil {
		c.log.Error().Err(err).Msg("Thread starter failed")
		c.activity.Append("Thread failed: %v", err)
		c.recordPostHistory(ctx, &models.PostRecord{
			Content:     tweets[0],
			AIGenerated: true,
			Outcome:     models.OutcomeFailed,
			Error:       err.Error(),
		})
		return PostResult{Content: tweets[0], Error: err.Error()}
	}

	// Chain the remaining tweets under the previous one. A broken chain
	// still leaves a valid partial thread, so failures stop but don't undo.
	prevID := starterID
	for _, text := range tweets[1:] {
		id, err := client.Reply(ctx, text, prevID)
		if err != nil {
			c.log.WithTweetID(prevID).Warn().Err(err).Msg("Thread continuation failed")
			c.activity.Append("Thread posted partially: %v", err)
			break
		}
		prevID = id
	}

	c.limits.RecordPost()
	c.stats.RecordPost()
	c.activity.Append("Posted educational thread %s (%d tweets)", starterID, len(tweets))
	c.recordPostHistory(ctx, &models.PostRecord{
		Content:     tweets[0],
		TweetID:     starterID,
		AIGenerated: true,
		Outcome:     models.OutcomeSuccess,
	})

	c.log.WithTweetID(starterID).Info().
		Int("tweets", len(tweets)).
		Msg("Posted educational thread")

	return PostResult{Success: true, Content: tweets[0], TweetID: starterID}
}
