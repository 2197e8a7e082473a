// Package throttle implements the client-side posting and engagement policy
// limits. It is a conservative throttle in front of Twitter's own enforcement:
// a fixed-bucket counter that resets once the window has elapsed, not a
// sliding log.
package throttle

import (
	"fmt"
	"sync"
	"time"
)

// Policy holds the throttle thresholds.
type Policy struct {
	MinPostGap        time.Duration
	EngagementWindow  time.Duration
	EngagementCeiling int
}

// DefaultPolicy matches the campaign's conservative defaults.
func DefaultPolicy() Policy {
	return Policy{
		MinPostGap:        2 * time.Minute,
		EngagementWindow:  15 * time.Minute,
		EngagementCeiling: 20,
	}
}

// Throttle gates posting and engagement actions.
type Throttle struct {
	mu     sync.Mutex
	policy Policy
	now    func() time.Time

	lastPost        time.Time
	lastEngagement  time.Time
	engagementCount int
}

// New creates a throttle with the given policy.
func New(policy Policy) *Throttle {
	return &Throttle{policy: policy, now: time.Now}
}

// NewWithClock creates a throttle with an injected clock, for tests.
func NewWithClock(policy Policy, now func() time.Time) *Throttle {
	return &Throttle{policy: policy, now: now}
}

// CanPost reports whether a post is allowed now. Denial carries a reason.
func (t *Throttle) CanPost() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastPost.IsZero() {
		return true, ""
	}

	elapsed := t.now().Sub(t.lastPost)
	if elapsed < t.policy.MinPostGap {
		wait := t.policy.MinPostGap - elapsed
		return false, fmt.Sprintf("posting too fast: wait %s", wait.Round(time.Second))
	}

	return true, ""
}

// CanEngage reports whether an engagement is allowed now. The counter resets
// when more than the window has elapsed since the last engagement.
func (t *Throttle) CanEngage() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lastEngagement.IsZero() && t.now().Sub(t.lastEngagement) > t.policy.EngagementWindow {
		t.engagementCount = 0
		t.lastEngagement = t.now()
	}

	if t.engagementCount >= t.policy.EngagementCeiling {
		return false, fmt.Sprintf("engagement rate limit reached: %d in the last %s",
			t.engagementCount, t.policy.EngagementWindow)
	}

	return true, ""
}

// RecordPost marks a successful post. Call only after the API call succeeds
// so the counter reflects real usage, not attempts.
func (t *Throttle) RecordPost() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastPost = t.now()
}

// RecordEngagement marks a successful engagement.
func (t *Throttle) RecordEngagement() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastEngagement = t.now()
	t.engagementCount++
}
