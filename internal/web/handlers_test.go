package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtreemtech/twitter-engagement-bot/internal/bot"
	"github.com/xtreemtech/twitter-engagement-bot/internal/config"
	"github.com/xtreemtech/twitter-engagement-bot/internal/rotation"
	"github.com/xtreemtech/twitter-engagement-bot/internal/throttle"
	"github.com/xtreemtech/twitter-engagement-bot/internal/twitter"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
)

// stubClient satisfies bot.SocialClient for handler tests.
type stubClient struct{}

func (stubClient) Verify(ctx context.Context) (*twitter.User, error) {
	return &twitter.User{ID: "1", Username: "levvafi"}, nil
}
func (stubClient) PostTweet(ctx context.Context, strategies []string, text string, mediaIDs []string) (string, error) {
	return "tweet-1", nil
}
func (stubClient) UploadMedia(ctx context.Context, data []byte) (string, error) {
	return "media-1", nil
}
func (stubClient) SearchRecent(ctx context.Context, keyword string, maxResults int) ([]twitter.Tweet, error) {
	return nil, nil
}
func (stubClient) Like(ctx context.Context, tweetID string) error { return nil }
func (stubClient) Reply(ctx context.Context, text, inReplyToID string) (string, error) {
	return "reply-1", nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Format: "json"})

	var cfg config.Config
	cfg.Campaign.UTMLink = "https://example.com?utm=test"
	cfg.Campaign.Keywords = []string{"DeFi"}
	cfg.Engagement = config.EngagementConfig{MaxSearchResults: 10, MaxLikesPerRun: 3, MinTweetLikes: 1}
	cfg.Publishing = config.PublishingConfig{
		Strategies:    []string{"api_v2"},
		AttachImages:  true,
		MaxImageBytes: 5 * 1024 * 1024,
		FetchTimeout:  "2s",
	}
	cfg.Scheduler = config.SchedulerConfig{
		PostCrons:   []string{"0 9 * * *"},
		EngageCrons: []string{"30 10 * * *"},
	}

	content := rotation.NewContentRotatorFromPool([]string{"hello " + cfg.Campaign.UTMLink}, log)
	images := rotation.NewImageRotator(filepath.Join(t.TempDir(), "images.txt"), log)
	limits := throttle.NewWithClock(throttle.DefaultPolicy(), func() time.Time { return time.Now() })

	controller := bot.New(cfg, content, images, limits,
		func() (bot.SocialClient, error) { return stubClient{}, nil },
		log,
	)

	return NewServer(controller, log)
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, body := doJSON(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}

func TestStartStopLifecycle(t *testing.T) {
	s := newTestServer(t)

	w, body := doJSON(t, s, http.MethodPost, "/api/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	_, stats := doJSON(t, s, http.MethodGet, "/api/stats", "")
	assert.Equal(t, "running", stats["status"])

	// Start again: idempotent.
	w, _ = doJSON(t, s, http.MethodPost, "/api/start", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, s, http.MethodPost, "/api/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)

	_, stats = doJSON(t, s, http.MethodGet, "/api/stats", "")
	assert.Equal(t, "stopped", stats["status"])
}

func TestStatsShape(t *testing.T) {
	s := newTestServer(t)

	w, stats := doJSON(t, s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "Never", stats["last_post"])
	assert.Equal(t, float64(0), stats["posts_today"])
	assert.Equal(t, float64(0), stats["engagements_today"])
	assert.Equal(t, float64(1), stats["content_pool_size"])
}

func TestManualPost(t *testing.T) {
	s := newTestServer(t)

	w, body := doJSON(t, s, http.MethodPost, "/api/post", `{"use_image": false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "tweet-1", body["tweet_id"])

	_, stats := doJSON(t, s, http.MethodGet, "/api/stats", "")
	assert.Equal(t, float64(1), stats["posts_today"])
}

func TestManualPostThrottled(t *testing.T) {
	s := newTestServer(t)

	w, _ := doJSON(t, s, http.MethodPost, "/api/post", `{"use_image": false}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Second post inside the minimum gap comes back as a structured failure.
	w, body := doJSON(t, s, http.MethodPost, "/api/post", `{"use_image": false}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, body["error"], "too fast")
}

func TestManualPostSurvivesClientDisconnect(t *testing.T) {
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	}))
	defer imgSrv.Close()

	s := newTestServer(t)

	w, _ := doJSON(t, s, http.MethodPost, "/api/upload-image", `{"url": "`+imgSrv.URL+`/a.png"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// A dashboard client that has already gone away must not abort the
	// in-flight action: the image fetch still runs on a live context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/post", strings.NewReader(`{"use_image": true}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["with_image"], "image fetch must not be cancelled by the disconnect")
}

func TestUploadImageValidation(t *testing.T) {
	s := newTestServer(t)

	w, _ := doJSON(t, s, http.MethodPost, "/api/upload-image", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, s, http.MethodPost, "/api/upload-image", `{"url": "not-a-url"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := doJSON(t, s, http.MethodPost, "/api/upload-image", `{"url": "https://cdn.example.com/a.png"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	// Duplicate rejected.
	w, _ = doJSON(t, s, http.MethodPost, "/api/upload-image", `{"url": "https://cdn.example.com/a.png"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCampaignImagesList(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/upload-image", `{"url": "https://cdn.example.com/a.png"}`)
	doJSON(t, s, http.MethodPost, "/api/upload-image", `{"url": "https://cdn.example.com/b.png"}`)

	w, body := doJSON(t, s, http.MethodGet, "/api/campaign-images", "")
	require.Equal(t, http.StatusOK, w.Code)

	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestActivityLogEndpoint(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/post", `{"use_image": false}`)

	w, body := doJSON(t, s, http.MethodGet, "/api/logs", "")
	require.Equal(t, http.StatusOK, w.Code)

	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data)
}

func TestHistoryWithoutRepository(t *testing.T) {
	s := newTestServer(t)

	w, body := doJSON(t, s, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}
