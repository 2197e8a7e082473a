package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtreemtech/twitter-engagement-bot/internal/ai"
	"github.com/xtreemtech/twitter-engagement-bot/internal/bot"
	"github.com/xtreemtech/twitter-engagement-bot/internal/config"
	"github.com/xtreemtech/twitter-engagement-bot/internal/rotation"
	"github.com/xtreemtech/twitter-engagement-bot/internal/storage/sqlite"
	"github.com/xtreemtech/twitter-engagement-bot/internal/throttle"
	"github.com/xtreemtech/twitter-engagement-bot/internal/twitter"
	"github.com/xtreemtech/twitter-engagement-bot/internal/web"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
	"github.com/xtreemtech/twitter-engagement-bot/pkg/ratelimit"
)

var (
	cfgFile   string
	autostart bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "twitter-bot",
		Short: "Campaign automation bot for Twitter/X",
		Long: `Posts campaign content and engages with relevant tweets on a fixed
daily schedule, controlled through a JSON dashboard with a live log feed.`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&autostart, "autostart", false, "start the schedule immediately")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting Twitter engagement bot")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// History database (best-effort: the bot runs without it)
	repo, err := sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Outbound API pacing, shared across clients
	limiter := ratelimit.NewDefaultLimiter()

	// Rotation pools
	content := rotation.NewContentRotator(cfg.Campaign.ContentPoolFile, cfg.Campaign.UTMLink, log)
	images := rotation.NewImageRotator(cfg.Campaign.ImagePoolFile, log)

	// Client-side throttle policy
	limits := throttle.New(throttlePolicy(cfg.Throttle))

	opts := []bot.Option{bot.WithRepository(repo), bot.WithLimiter(limiter)}
	if cfg.Anthropic.Enabled {
		opts = append(opts, bot.WithGenerator(ai.NewClient(cfg.Anthropic, limiter, log)))
		log.Info().Str("model", cfg.Anthropic.Model).Msg("AI content generation enabled")
	}

	// The Twitter client is constructed lazily on the first action so a
	// credential problem is an action failure, not a startup crash.
	clientFactory := func() (bot.SocialClient, error) {
		return twitter.NewClient(cfg.Twitter, limiter, log), nil
	}

	controller := bot.New(*cfg, content, images, limits, clientFactory, log, opts...)

	if autostart {
		if err := controller.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	server := web.NewServer(controller, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(cfg.Server.Addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		controller.Stop()
	case err := <-errCh:
		return fmt.Errorf("dashboard server failed: %w", err)
	}

	return nil
}

// throttlePolicy parses the configured durations, falling back to defaults.
func throttlePolicy(cfg config.ThrottleConfig) throttle.Policy {
	policy := throttle.DefaultPolicy()

	if d, err := time.ParseDuration(cfg.MinPostGap); err == nil && d > 0 {
		policy.MinPostGap = d
	}
	if d, err := time.ParseDuration(cfg.EngagementWindow); err == nil && d > 0 {
		policy.EngagementWindow = d
	}
	if cfg.EngagementCeiling > 0 {
		policy.EngagementCeiling = cfg.EngagementCeiling
	}

	return policy
}
