package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/xtreemtech/twitter-engagement-bot/pkg/ratelimit"
)

// Posting strategy names, tried in configured order until one succeeds.
const (
	StrategyV2  = "api_v2"
	StrategyV11 = "api_v11"
)

// PostTweet publishes a tweet with optional media using the ordered strategy
// list. Each strategy is attempted in turn; the first success wins.
func (c *Client) PostTweet(ctx context.Context, strategies []string, text string, mediaIDs []string) (string, error) {
	if len(strategies) == 0 {
		strategies = []string{StrategyV2}
	}

	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterTwitterWrite); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	var lastErr error
	for _, strategy := range strategies {
		var (
			id  string
			err error
		)
		switch strategy {
		case StrategyV2:
			id, err = c.postV2(ctx, text, mediaIDs)
		case StrategyV11:
			id, err = c.postV11(ctx, text, mediaIDs)
		default:
			err = fmt.Errorf("unknown posting strategy %q", strategy)
		}

		if err == nil {
			c.log.Info().Str("strategy", strategy).Str("tweet_id", id).Msg("Tweet posted")
			return id, nil
		}

		c.log.Warn().Err(err).Str("strategy", strategy).Msg("Posting strategy failed")
		lastErr = err
	}

	return "", fmt.Errorf("all posting strategies failed: %w", lastErr)
}

// postV2 creates a tweet via POST /2/tweets.
func (c *Client) postV2(ctx context.Context, text string, mediaIDs []string) (string, error) {
	payload := map[string]interface{}{"text": text}
	if len(mediaIDs) > 0 {
		payload["media"] = map[string]interface{}{"media_ids": mediaIDs}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tweet: %w", err)
	}

	req, err := newJSONRequest(ctx, http.MethodPost, baseURLv2+"/tweets", string(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.userClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tweet request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode tweet response: %w", err)
	}

	return result.Data.ID, nil
}

// Reply posts a tweet in reply to another tweet via POST /2/tweets.
func (c *Client) Reply(ctx context.Context, text, inReplyToID string) (string, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterTwitterWrite); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	payload := map[string]interface{}{
		"text":  text,
		"reply": map[string]string{"in_reply_to_tweet_id": inReplyToID},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal reply: %w", err)
	}

	req, err := newJSONRequest(ctx, http.MethodPost, baseURLv2+"/tweets", string(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.userClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reply request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode reply response: %w", err)
	}

	c.log.Info().Str("tweet_id", result.Data.ID).Str("in_reply_to", inReplyToID).Msg("Reply posted")
	return result.Data.ID, nil
}

// postV11 creates a tweet via the legacy statuses/update endpoint.
func (c *Client) postV11(ctx context.Context, text string, mediaIDs []string) (string, error) {
	form := url.Values{}
	form.Set("status", text)
	if len(mediaIDs) > 0 {
		form.Set("media_ids", strings.Join(mediaIDs, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURLv11+"/statuses/update.json", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.userClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tweet request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var result struct {
		IDStr string `json:"id_str"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode tweet response: %w", err)
	}

	return result.IDStr, nil
}

// newJSONRequest builds a request with a JSON body.
func newJSONRequest(ctx context.Context, method, url, body string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
