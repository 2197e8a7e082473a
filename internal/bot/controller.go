// Package bot wires the rotators, throttle, Twitter client and scheduler into
// the automation controller behind the dashboard.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/xtreemtech/twitter-engagement-bot/internal/config"
	"github.com/xtreemtech/twitter-engagement-bot/internal/rotation"
	"github.com/xtreemtech/twitter-engagement-bot/internal/storage"
	"github.com/xtreemtech/twitter-engagement-bot/internal/throttle"
	"github.com/xtreemtech/twitter-engagement-bot/internal/twitter"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/ratelimit"
)

// SocialClient is the slice of the Twitter client the controller uses.
type SocialClient interface {
	Verify(ctx context.Context) (*twitter.User, error)
	PostTweet(ctx context.Context, strategies []string, text string, mediaIDs []string) (string, error)
	UploadMedia(ctx context.Context, data []byte) (string, error)
	SearchRecent(ctx context.Context, keyword string, maxResults int) ([]twitter.Tweet, error)
	Like(ctx context.Context, tweetID string) error
	Reply(ctx context.Context, text, inReplyToID string) (string, error)
}

// Generator produces AI campaign content.
type Generator interface {
	GenerateTweet(ctx context.Context, utmLink string) (string, error)
	GenerateReply(ctx context.Context, keyword string) (string, error)
	GenerateThread(ctx context.Context, utmLink string) ([]string, error)
}

// Controller owns all mutable automation state. Post and Engage are
// serialized through actionMu so a manual trigger and a scheduled run can
// never interleave; stats and the activity log carry their own locks so
// reads stay responsive during slow external calls.
type Controller struct {
	cfg config.Config
	log *logger.Logger

	content *rotation.ContentRotator
	images  *rotation.ImageRotator
	limits  *throttle.Throttle
	repo    storage.Repository // optional, best-effort history
	gen     Generator          // nil when AI generation is disabled

	clientFactory func() (SocialClient, error)
	client        SocialClient

	limiter *ratelimit.MultiLimiter // optional, paces image downloads

	stats    *Stats
	activity *ActivityLog

	fetchClient *http.Client
	pause       func(ctx context.Context, d time.Duration)
	randInt     func(n int) int

	actionMu sync.Mutex

	schedMu sync.Mutex
	sched   *scheduler
}

// Option customizes a Controller, used by tests.
type Option func(*Controller)

// WithClient injects an already-initialized social client.
func WithClient(client SocialClient) Option {
	return func(c *Controller) { c.client = client }
}

// WithClientFactory overrides the lazy client constructor.
func WithClientFactory(fn func() (SocialClient, error)) Option {
	return func(c *Controller) { c.clientFactory = fn }
}

// WithGenerator injects an AI tweet generator.
func WithGenerator(gen Generator) Option {
	return func(c *Controller) { c.gen = gen }
}

// WithRepository injects the history repository.
func WithRepository(repo storage.Repository) Option {
	return func(c *Controller) { c.repo = repo }
}

// WithLimiter injects the outbound pacing limiter for image downloads.
func WithLimiter(limiter *ratelimit.MultiLimiter) Option {
	return func(c *Controller) { c.limiter = limiter }
}

// WithPause overrides the inter-like pause, used by tests.
func WithPause(fn func(ctx context.Context, d time.Duration)) Option {
	return func(c *Controller) { c.pause = fn }
}

// WithRand overrides the random source, used by tests.
func WithRand(fn func(n int) int) Option {
	return func(c *Controller) { c.randInt = fn }
}

// New constructs the controller. The social client is created lazily on the
// first action so a credential problem surfaces as an action failure, not a
// startup crash.
func New(
	cfg config.Config,
	content *rotation.ContentRotator,
	images *rotation.ImageRotator,
	limits *throttle.Throttle,
	clientFactory func() (SocialClient, error),
	log *logger.Logger,
	opts ...Option,
) *Controller {
	fetchTimeout, err := time.ParseDuration(cfg.Publishing.FetchTimeout)
	if err != nil || fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}

	c := &Controller{
		cfg:           cfg,
		log:           log.WithComponent("bot"),
		content:       content,
		images:        images,
		limits:        limits,
		clientFactory: clientFactory,
		stats:         NewStats(),
		activity:      NewActivityLog(),
		fetchClient:   &http.Client{Timeout: fetchTimeout},
		pause: func(ctx context.Context, d time.Duration) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		},
		randInt: defaultRandInt,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Stats returns a snapshot for the dashboard.
func (c *Controller) Stats() Snapshot {
	return c.stats.View(c.content.Size(), c.images.Size())
}

// Activity returns the recent activity lines.
func (c *Controller) Activity() []string {
	return c.activity.Lines()
}

// ActivityLog exposes the log for the websocket hub to hook into.
func (c *Controller) ActivityLog() *ActivityLog {
	return c.activity
}

// Images exposes the image rotator for the dashboard upload endpoints.
func (c *Controller) Images() *rotation.ImageRotator {
	return c.images
}

// History returns the repository, which may be nil.
func (c *Controller) History() storage.Repository {
	return c.repo
}

// ensureClient lazily initializes the social client and verifies credentials.
// On failure the client stays nil so the next action retries initialization.
func (c *Controller) ensureClient(ctx context.Context) (SocialClient, error) {
	if c.client != nil {
		return c.client, nil
	}

	client, err := c.clientFactory()
	if err != nil {
		c.log.Error().Err(err).Msg("Bot initialization failed")
		c.activity.Append("Bot initialization failed: %v", err)
		return nil, fmt.Errorf("bot initialization failed: %w", err)
	}

	if _, err := client.Verify(ctx); err != nil {
		c.log.Error().Err(err).Msg("Twitter credential check failed")
		c.activity.Append("Twitter credential check failed: %v", err)
		return nil, fmt.Errorf("twitter authentication failed: %w", err)
	}

	c.client = client
	c.activity.Append("Bot initialized successfully")
	return client, nil
}

// fetchImage downloads image bytes with a size ceiling and per-call timeout,
// paced so repeated posts stay polite to the image host.
func (c *Controller) fetchImage(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, ratelimit.LimiterImageFetch); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.fetchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned %s", resp.Status)
	}

	maxBytes := c.cfg.Publishing.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("image read failed: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", maxBytes)
	}

	return data, nil
}
