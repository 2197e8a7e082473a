package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/xtreemtech/twitter-engagement-bot/internal/config"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/ratelimit"
)

// Client wraps the Anthropic SDK client
type Client struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewClient creates a new Anthropic client
func NewClient(cfg config.AnthropicConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)

	return &Client{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		rateLimiter: limiter,
		log:         log.WithComponent("ai"),
	}
}

// Complete sends a message to Claude and returns the response
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	// Wait for rate limiter
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterAnthropic); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	c.log.Debug().
		Str("model", c.model).
		Int("max_tokens", c.maxTokens).
		Msg("Sending request to Claude")

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System: []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(userMessage),
				},
			},
		},
	})

	if err != nil {
		c.log.Error().Err(err).Msg("Claude API error")
		return "", fmt.Errorf("claude API error: %w", err)
	}

	// Extract text from response
	var response string
	for _, block := range message.Content {
		textBlock := block.AsText()
		if textBlock.Text != "" {
			response += textBlock.Text
		}
	}

	c.log.Debug().
		Int("input_tokens", int(message.Usage.InputTokens)).
		Int("output_tokens", int(message.Usage.OutputTokens)).
		Msg("Received Claude response")

	return response, nil
}

// GenerateTweet generates a fresh campaign tweet. The UTM link is appended
// when the model leaves it out, and the result is trimmed to fit a tweet.
func (c *Client) GenerateTweet(ctx context.Context, utmLink string) (string, error) {
	response, err := c.Complete(ctx, tweetSystemPrompt, tweetUserPrompt(utmLink))
	if err != nil {
		return "", err
	}

	tweet := firstVariation(response)
	if tweet == "" {
		return "", fmt.Errorf("empty response from model")
	}

	tweet = ensureLink(tweet, utmLink)
	return clampTweet(tweet, utmLink), nil
}

// GenerateReply generates a short conversational reply for a tweet about the
// given keyword. Over-long replies are rejected rather than truncated so a
// reply never goes out mid-sentence.
func (c *Client) GenerateReply(ctx context.Context, keyword string) (string, error) {
	response, err := c.Complete(ctx, tweetSystemPrompt, replyUserPrompt(keyword))
	if err != nil {
		return "", err
	}

	reply := firstVariation(response)
	if reply == "" {
		return "", fmt.Errorf("empty response from model")
	}
	if len(reply) > maxReplyLength {
		return "", fmt.Errorf("generated reply exceeds %d characters", maxReplyLength)
	}

	return reply, nil
}

// GenerateThread generates an educational thread: an AI-written starter
// followed by the standard vault explainer carrying the UTM link. A failed
// starter generation falls back to the stock opener so the schedule still
// produces a thread.
func (c *Client) GenerateThread(ctx context.Context, utmLink string) ([]string, error) {
	starter := fallbackThreadStarter
	response, err := c.Complete(ctx, tweetSystemPrompt, threadStarterPrompt())
	if err != nil {
		c.log.Warn().Err(err).Msg("Thread starter generation failed, using fallback")
	} else if s := firstVariation(response); s != "" {
		starter = clampTweet(s, utmLink)
	}

	return []string{starter, threadPoint(utmLink)}, nil
}
