package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestThrottle(policy Policy) (*Throttle, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	return NewWithClock(policy, clock.Now), clock
}

func TestCanPostMinimumSpacing(t *testing.T) {
	th, clock := newTestThrottle(Policy{
		MinPostGap:        2 * time.Minute,
		EngagementWindow:  15 * time.Minute,
		EngagementCeiling: 20,
	})

	ok, _ := th.CanPost()
	require.True(t, ok, "first post must be allowed")
	th.RecordPost()

	ok, reason := th.CanPost()
	assert.False(t, ok, "second post inside the gap must be denied")
	assert.NotEmpty(t, reason)

	clock.Advance(90 * time.Second)
	ok, _ = th.CanPost()
	assert.False(t, ok, "still inside the gap")

	clock.Advance(31 * time.Second)
	ok, _ = th.CanPost()
	assert.True(t, ok, "gap elapsed")
}

func TestCanEngageCeiling(t *testing.T) {
	th, _ := newTestThrottle(Policy{
		MinPostGap:        2 * time.Minute,
		EngagementWindow:  15 * time.Minute,
		EngagementCeiling: 2,
	})

	// Ceiling 2: first two checks allowed, third denied.
	ok, _ := th.CanEngage()
	require.True(t, ok)
	th.RecordEngagement()

	ok, _ = th.CanEngage()
	require.True(t, ok)
	th.RecordEngagement()

	ok, reason := th.CanEngage()
	assert.False(t, ok)
	assert.Contains(t, reason, "rate limit")
}

func TestCanEngageWindowReset(t *testing.T) {
	th, clock := newTestThrottle(Policy{
		MinPostGap:        2 * time.Minute,
		EngagementWindow:  15 * time.Minute,
		EngagementCeiling: 3,
	})

	for i := 0; i < 3; i++ {
		ok, _ := th.CanEngage()
		require.True(t, ok)
		th.RecordEngagement()
	}

	ok, _ := th.CanEngage()
	require.False(t, ok, "ceiling reached")

	// More than the window elapses: the bucket resets.
	clock.Advance(16 * time.Minute)
	ok, _ = th.CanEngage()
	assert.True(t, ok, "window elapsed, counter reset")
}

func TestCanEngageWindowNotResetEarly(t *testing.T) {
	th, clock := newTestThrottle(Policy{
		MinPostGap:        2 * time.Minute,
		EngagementWindow:  15 * time.Minute,
		EngagementCeiling: 1,
	})

	ok, _ := th.CanEngage()
	require.True(t, ok)
	th.RecordEngagement()

	clock.Advance(14 * time.Minute)
	ok, _ = th.CanEngage()
	assert.False(t, ok, "window has not elapsed yet")
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 2*time.Minute, p.MinPostGap)
	assert.Equal(t, 15*time.Minute, p.EngagementWindow)
	assert.Equal(t, 20, p.EngagementCeiling)
}
