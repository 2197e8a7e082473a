package bot

import (
	"fmt"
	"sync"
	"time"
)

// activityLogCap bounds the in-memory activity feed.
const activityLogCap = 25

// Status represents the automation lifecycle state
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
)

// Snapshot is a point-in-time view of the bot's counters, safe to serialize.
type Snapshot struct {
	Status           Status `json:"status"`
	LastPost         string `json:"last_post"`
	PostsToday       int    `json:"posts_today"`
	EngagementsToday int    `json:"engagements_today"`
	ContentPoolSize  int    `json:"content_pool_size"`
	ImagePoolSize    int    `json:"image_pool_size"`
}

// Stats tracks run counters behind its own lock so dashboard reads never
// block on an in-flight action.
type Stats struct {
	mu               sync.RWMutex
	status           Status
	lastPost         time.Time
	day              time.Time
	postsToday       int
	engagementsToday int
	now              func() time.Time
}

// NewStats creates stats in the stopped state.
func NewStats() *Stats {
	return &Stats{status: StatusStopped, now: time.Now}
}

// SetStatus updates the lifecycle state.
func (s *Stats) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// RecordPost bumps the daily post counter.
func (s *Stats) RecordPost() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()
	s.lastPost = s.now()
	s.postsToday++
}

// RecordEngagement bumps the daily engagement counter.
func (s *Stats) RecordEngagement() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()
	s.engagementsToday++
}

// rollover resets the daily counters when the local calendar day changes.
// Caller holds the lock.
func (s *Stats) rollover() {
	now := s.now()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if !s.day.Equal(today) {
		s.day = today
		s.postsToday = 0
		s.engagementsToday = 0
	}
}

// View returns a snapshot with the given pool sizes filled in. It rolls the
// daily counters over too, so yesterday's counts never linger past midnight
// waiting for the next action.
func (s *Stats) View(contentPool, imagePool int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollover()

	lastPost := "Never"
	if !s.lastPost.IsZero() {
		lastPost = s.lastPost.Format("15:04:05")
	}

	return Snapshot{
		Status:           s.status,
		LastPost:         lastPost,
		PostsToday:       s.postsToday,
		EngagementsToday: s.engagementsToday,
		ContentPoolSize:  contentPool,
		ImagePoolSize:    imagePool,
	}
}

// ActivityLog keeps the last few timestamped action lines in memory and
// pushes each new line to an optional broadcast hook (the websocket hub).
// It is never persisted and resets on restart.
type ActivityLog struct {
	mu        sync.RWMutex
	entries   []string
	broadcast func(string)
	now       func() time.Time
}

// NewActivityLog creates an empty activity log.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{now: time.Now}
}

// OnAppend registers a hook invoked with every new line.
func (a *ActivityLog) OnAppend(fn func(string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.broadcast = fn
}

// Append records a timestamped line, evicting the oldest beyond the cap.
func (a *ActivityLog) Append(format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s", a.now().Format("15:04:05"), fmt.Sprintf(format, args...))

	a.mu.Lock()
	a.entries = append(a.entries, line)
	if len(a.entries) > activityLogCap {
		a.entries = a.entries[len(a.entries)-activityLogCap:]
	}
	broadcast := a.broadcast
	a.mu.Unlock()

	if broadcast != nil {
		broadcast(line)
	}
}

// Lines returns a copy of the current entries, oldest first.
func (a *ActivityLog) Lines() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.entries...)
}
