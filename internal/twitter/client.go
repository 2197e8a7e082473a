// Package twitter implements the Twitter/X API client used by the bot:
// recent search with app-only auth, and tweets, likes and media uploads
// with OAuth 1.0a user context.
package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/xtreemtech/twitter-engagement-bot/internal/config"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/ratelimit"
)

const (
	baseURLv2  = "https://api.twitter.com/2"
	baseURLv11 = "https://api.twitter.com/1.1"
	uploadURL  = "https://upload.twitter.com/1.1/media/upload.json"
)

// ErrRateLimited signals an upstream 429. Callers distinguish it from the
// bot's own throttle denials and abort engagement loops immediately.
var ErrRateLimited = errors.New("twitter: rate limited upstream")

// Client handles Twitter API requests.
type Client struct {
	bearerClient *http.Client // app-only auth, used for search
	userClient   *http.Client // OAuth 1.0a user context, used for writes
	bearerToken  string
	username     string
	cachedUserID string
	rateLimiter  *ratelimit.MultiLimiter
	log          *logger.Logger
}

// NewClient creates a Twitter client from credentials.
func NewClient(cfg config.TwitterConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	oauthConfig := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)

	userClient := oauthConfig.Client(oauth1.NoContext, token)
	userClient.Timeout = 30 * time.Second

	return &Client{
		bearerClient: &http.Client{Timeout: 30 * time.Second},
		userClient:   userClient,
		bearerToken:  cfg.BearerToken,
		username:     cfg.Username,
		rateLimiter:  limiter,
		log:          log.WithComponent("twitter"),
	}
}

// Username returns the brand account handle, if configured.
func (c *Client) Username() string {
	return c.username
}

// User represents the authenticated account.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Verify checks that the user-context credentials work and returns the
// authenticated account.
func (c *Client) Verify(ctx context.Context) (*User, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterTwitterRead); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURLv2+"/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.userClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("credential check failed: %w", err)
	}

	var result struct {
		Data User `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	c.log.Info().Str("username", result.Data.Username).Msg("Twitter credentials verified")
	return &result.Data, nil
}

// PublicMetrics holds per-tweet engagement counts.
type PublicMetrics struct {
	LikeCount    int `json:"like_count"`
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	QuoteCount   int `json:"quote_count"`
}

// Tweet represents a search result.
type Tweet struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	AuthorID      string        `json:"author_id"`
	PublicMetrics PublicMetrics `json:"public_metrics"`
}

// SearchRecent searches recent tweets matching the query, excluding retweets
// and the brand account itself.
func (c *Client) SearchRecent(ctx context.Context, keyword string, maxResults int) ([]Tweet, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterTwitterRead); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	query := keyword + " -is:retweet -is:reply"
	if c.username != "" {
		query += " -from:" + c.username
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("tweet.fields", "public_metrics,author_id")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURLv2+"/tweets/search/recent?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	c.log.Debug().Str("query", query).Msg("Searching recent tweets")

	resp, err := c.bearerClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var result struct {
		Data []Tweet `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	return result.Data, nil
}

// Like likes a tweet on behalf of the authenticated account.
func (c *Client) Like(ctx context.Context, tweetID string) error {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterTwitterWrite); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	me, err := c.authedUserID(ctx)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`{"tweet_id":%q}`, tweetID)
	req, err := newJSONRequest(ctx, http.MethodPost, fmt.Sprintf("%s/users/%s/likes", baseURLv2, me), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.userClient.Do(req)
	if err != nil {
		return fmt.Errorf("like request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("like failed: %w", err)
	}

	c.log.Debug().Str("tweet_id", tweetID).Msg("Liked tweet")
	return nil
}

// authedUserID returns the authenticated user's ID, cached after first use.
func (c *Client) authedUserID(ctx context.Context) (string, error) {
	if c.cachedUserID != "" {
		return c.cachedUserID, nil
	}
	user, err := c.Verify(ctx)
	if err != nil {
		return "", err
	}
	c.cachedUserID = user.ID
	return c.cachedUserID, nil
}

// checkStatus maps an HTTP error status to an error, distinguishing 429.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("unexpected status %s: %s", resp.Status, string(data))
}
