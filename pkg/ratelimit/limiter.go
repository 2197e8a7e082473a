package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages multiple rate limiters for different services
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a service
// requestsPerSecond: the rate limit (e.g., 10 means 10 requests per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (m *MultiLimiter) Allow(name string) bool {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	return limiter.Allow()
}

// Default rate limiter names
const (
	LimiterTwitterRead  = "twitter_read"
	LimiterTwitterWrite = "twitter_write"
	LimiterAnthropic    = "anthropic"
	LimiterImageFetch   = "image_fetch"
)

// NewDefaultLimiter creates a limiter with default rate limits
func NewDefaultLimiter() *MultiLimiter {
	m := NewMultiLimiter()

	// Twitter search (app-only): 180 requests per 15 min, burst 10
	m.AddLimiter(LimiterTwitterRead, 180.0/(15*60), 10)

	// Twitter writes (tweets, likes): 50 per 15 min, burst 5
	m.AddLimiter(LimiterTwitterWrite, 50.0/(15*60), 5)

	// Anthropic: 10 requests per minute, burst 2
	m.AddLimiter(LimiterAnthropic, 10.0/60, 2)

	// Campaign image downloads: be polite to image hosts - 1 per second, burst 3
	m.AddLimiter(LimiterImageFetch, 1, 3)

	return m
}
