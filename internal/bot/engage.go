package bot

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/xtreemtech/twitter-engagement-bot/internal/models"
	"github.com/xtreemtech/twitter-engagement-bot/internal/twitter"
)

// EngageResult is the structured outcome of an engagement action.
type EngageResult struct {
	Success     bool   `json:"success"`
	Keyword     string `json:"keyword,omitempty"`
	Engagements int    `json:"engagements"`
	Error       string `json:"error,omitempty"`
}

// Engage searches recent tweets for a random campaign keyword and likes up to
// the configured cap of qualifying results, pacing likes with a randomized
// human-like pause. An upstream rate limit aborts the loop immediately.
func (c *Controller) Engage(ctx context.Context) EngageResult {
	c.actionMu.Lock()
	defer c.actionMu.Unlock()

	client, err := c.ensureClient(ctx)
	if err != nil {
		return EngageResult{Error: err.Error()}
	}

	if ok, reason := c.limits.CanEngage(); !ok {
		c.log.Info().Str("reason", reason).Msg("Engagement denied by throttle")
		c.activity.Append("Engagement denied: %s", reason)
		return EngageResult{Error: reason}
	}

	keywords := c.cfg.Campaign.Keywords
	if len(keywords) == 0 {
		c.activity.Append("Engagement failed: no keywords configured")
		return EngageResult{Error: "no engagement keywords configured"}
	}
	keyword := keywords[c.randInt(len(keywords))]

	log := c.log.WithKeyword(keyword)
	log.Info().Msg("Engaging with community")
	c.activity.Append("Searching tweets about %q", keyword)

	tweets, err := client.SearchRecent(ctx, keyword, c.cfg.Engagement.MaxSearchResults)
	if err != nil {
		if errors.Is(err, twitter.ErrRateLimited) {
			c.activity.Append("Engagement aborted: upstream rate limited")
			return EngageResult{Keyword: keyword, Error: "upstream rate limited"}
		}
		log.Error().Err(err).Msg("Search failed")
		c.activity.Append("Engagement failed: %v", err)
		return EngageResult{Keyword: keyword, Error: err.Error()}
	}

	candidates := c.filterCandidates(tweets)
	liked := 0

	for i, tweet := range candidates {
		if liked >= c.cfg.Engagement.MaxLikesPerRun {
			break
		}

		// The window may have closed mid-loop.
		if ok, reason := c.limits.CanEngage(); !ok {
			log.Info().Str("reason", reason).Msg("Stopping engagement loop")
			break
		}

		tlog := log.WithTweetID(tweet.ID)
		if err := client.Like(ctx, tweet.ID); err != nil {
			if errors.Is(err, twitter.ErrRateLimited) {
				c.activity.Append("Engagement aborted: upstream rate limited")
				c.recordEngagementHistory(ctx, keyword, tweet.ID, models.OutcomeFailed, err.Error())
				return EngageResult{Keyword: keyword, Engagements: liked, Error: "upstream rate limited"}
			}
			tlog.Warn().Err(err).Msg("Like failed")
			c.recordEngagementHistory(ctx, keyword, tweet.ID, models.OutcomeFailed, err.Error())
			continue
		}

		liked++
		c.limits.RecordEngagement()
		c.stats.RecordEngagement()
		c.activity.Append("Liked tweet about %q", keyword)
		c.recordEngagementHistory(ctx, keyword, tweet.ID, models.OutcomeSuccess, "")

		c.maybeReply(ctx, client, keyword, tweet.ID)

		if i < len(candidates)-1 && liked < c.cfg.Engagement.MaxLikesPerRun {
			c.pause(ctx, c.humanPause())
		}
	}

	log.Info().Int("engagements", liked).Msg("Engagement run completed")
	return EngageResult{Success: true, Keyword: keyword, Engagements: liked}
}

// filterCandidates keeps tweets inside the quality band: enough traction to
// matter, not so viral the like disappears into a mega-thread.
func (c *Controller) filterCandidates(tweets []twitter.Tweet) []twitter.Tweet {
	minLikes := c.cfg.Engagement.MinTweetLikes
	maxLikes := c.cfg.Engagement.MaxTweetLikes

	var out []twitter.Tweet
	for _, t := range tweets {
		likes := t.PublicMetrics.LikeCount
		if likes < minLikes {
			continue
		}
		if maxLikes > 0 && likes > maxLikes {
			continue
		}
		out = append(out, t)
	}
	return out
}

// maybeReply posts an AI reply under a just-liked tweet with the configured
// probability. Reply failures never fail the engagement run; the like already
// landed.
func (c *Controller) maybeReply(ctx context.Context, client SocialClient, keyword, tweetID string) {
	if c.gen == nil {
		return
	}
	prob := c.cfg.Engagement.ReplyProbability
	if prob <= 0 || c.randInt(100) >= int(prob*100) {
		return
	}

	tlog := c.log.WithKeyword(keyword).WithTweetID(tweetID)

	reply, err := c.gen.GenerateReply(ctx, keyword)
	if err != nil {
		tlog.Warn().Err(err).Msg("Reply generation failed")
		return
	}

	if _, err := client.Reply(ctx, reply, tweetID); err != nil {
		tlog.Warn().Err(err).Msg("Reply failed")
		return
	}

	tlog.Info().Msg("Replied to tweet")
	c.activity.Append("Replied to tweet about %q", keyword)
}

// humanPause returns a randomized delay between likes.
func (c *Controller) humanPause() time.Duration {
	min := c.cfg.Engagement.MinPauseSeconds
	max := c.cfg.Engagement.MaxPauseSeconds
	if min <= 0 {
		min = 30
	}
	if max <= min {
		max = min + 30
	}
	return time.Duration(min+c.randInt(max-min+1)) * time.Second
}

// recordEngagementHistory persists the attempt, best-effort.
func (c *Controller) recordEngagementHistory(ctx context.Context, keyword, tweetID string, outcome models.ActionOutcome, errMsg string) {
	if c.repo == nil {
		return
	}
	record := &models.EngagementRecord{
		Keyword: keyword,
		TweetID: tweetID,
		Outcome: outcome,
		Error:   errMsg,
	}
	if err := c.repo.CreateEngagementRecord(ctx, record); err != nil {
		c.log.Warn().Err(err).Msg("Failed to persist engagement record")
	}
}

func defaultRandInt(n int) int {
	return rand.Intn(n)
}
