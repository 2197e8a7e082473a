package bot

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
)

// scheduler wraps a cron instance so Start/Stop are idempotent and a
// double-start can never spawn a second loop.
type scheduler struct {
	cron *cron.Cron
}

// Start begins the automation schedule. Calling it while already running is
// a no-op success. Scheduled triggers go through the same action mutex as
// manual ones, so overlapping runs serialize rather than race.
func (c *Controller) Start() error {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	if c.sched != nil {
		c.log.Info().Msg("Scheduler already running")
		return nil
	}

	cr := cron.New(cron.WithLogger(cronLogger{c.log}))

	for _, spec := range c.cfg.Scheduler.PostCrons {
		if _, err := cr.AddFunc(spec, func() {
			c.log.Info().Msg("Scheduled post triggered")
			c.activity.Append("Scheduled post triggered")
			c.Post(context.Background(), true)
		}); err != nil {
			return fmt.Errorf("invalid post cron %q: %w", spec, err)
		}
	}

	for _, spec := range c.cfg.Scheduler.EngageCrons {
		if _, err := cr.AddFunc(spec, func() {
			c.log.Info().Msg("Scheduled engagement triggered")
			c.activity.Append("Scheduled engagement triggered")
			c.Engage(context.Background())
		}); err != nil {
			return fmt.Errorf("invalid engage cron %q: %w", spec, err)
		}
	}

	// Educational threads need the generator, so the crons only register
	// when AI is enabled.
	if c.gen != nil {
		for _, spec := range c.cfg.Scheduler.ThreadCrons {
			if _, err := cr.AddFunc(spec, func() {
				c.log.Info().Msg("Scheduled thread triggered")
				c.activity.Append("Scheduled thread triggered")
				c.PostThread(context.Background())
			}); err != nil {
				return fmt.Errorf("invalid thread cron %q: %w", spec, err)
			}
		}
	}

	cr.Start()
	c.sched = &scheduler{cron: cr}
	c.stats.SetStatus(StatusRunning)
	c.activity.Append("Bot started - automated posting enabled")
	c.log.Info().
		Strs("post_crons", c.cfg.Scheduler.PostCrons).
		Strs("engage_crons", c.cfg.Scheduler.EngageCrons).
		Msg("Scheduler started")

	return nil
}

// Stop halts the schedule. In-flight actions run to completion; the returned
// context from cron.Stop is not awaited because actions own their lifecycle.
func (c *Controller) Stop() {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	if c.sched == nil {
		return
	}

	c.sched.cron.Stop()
	c.sched = nil
	c.stats.SetStatus(StatusStopped)
	c.activity.Append("Bot stopped - automated posting disabled")
	c.log.Info().Msg("Scheduler stopped")
}

// Running reports whether the schedule is active.
func (c *Controller) Running() bool {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()
	return c.sched != nil
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}
