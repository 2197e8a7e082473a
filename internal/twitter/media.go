package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/xtreemtech/twitter-engagement-bot/pkg/ratelimit"
)

// UploadMedia uploads image bytes via the v1.1 media endpoint and returns the
// media ID for attachment to a tweet.
func (c *Client) UploadMedia(ctx context.Context, data []byte) (string, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterTwitterWrite); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write media bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.log.Debug().Int("bytes", len(data)).Msg("Uploading media")

	resp, err := c.userClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", fmt.Errorf("media upload failed: %w", err)
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.MediaIDString == "" {
		return "", fmt.Errorf("upload response missing media id")
	}

	return result.MediaIDString, nil
}
