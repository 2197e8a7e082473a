package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Twitter    TwitterConfig    `mapstructure:"twitter"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Campaign   CampaignConfig   `mapstructure:"campaign"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Throttle   ThrottleConfig   `mapstructure:"throttle"`
	Engagement EngagementConfig `mapstructure:"engagement"`
	Publishing PublishingConfig `mapstructure:"publishing"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds dashboard HTTP server settings
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// TwitterConfig holds Twitter/X API credentials
type TwitterConfig struct {
	BearerToken       string `mapstructure:"bearer_token"`
	APIKey            string `mapstructure:"api_key"`
	APISecret         string `mapstructure:"api_secret"`
	AccessToken       string `mapstructure:"access_token"`
	AccessTokenSecret string `mapstructure:"access_token_secret"`
	Username          string `mapstructure:"username"` // brand account, excluded from search results
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// CampaignConfig holds campaign content settings
type CampaignConfig struct {
	UTMLink         string   `mapstructure:"utm_link"`
	ContentPoolFile string   `mapstructure:"content_pool_file"`
	ImagePoolFile   string   `mapstructure:"image_pool_file"`
	Keywords        []string `mapstructure:"keywords"`
}

// SchedulerConfig holds cron specs for the automation loop
type SchedulerConfig struct {
	PostCrons   []string `mapstructure:"post_crons"`
	EngageCrons []string `mapstructure:"engage_crons"`
	ThreadCrons []string `mapstructure:"thread_crons"` // educational threads, AI-only
}

// ThrottleConfig holds client-side rate limit policy
type ThrottleConfig struct {
	MinPostGap        string `mapstructure:"min_post_gap"`       // minimum spacing between posts
	EngagementWindow  string `mapstructure:"engagement_window"`  // bucket duration
	EngagementCeiling int    `mapstructure:"engagement_ceiling"` // max engagements per window
}

// EngagementConfig holds engagement targeting settings
type EngagementConfig struct {
	MaxSearchResults int    `mapstructure:"max_search_results"`
	MaxLikesPerRun   int    `mapstructure:"max_likes_per_run"`
	MinTweetLikes    int    `mapstructure:"min_tweet_likes"` // skip tweets with no traction
	MaxTweetLikes    int    `mapstructure:"max_tweet_likes"` // skip mega-viral tweets
	MinPauseSeconds  int    `mapstructure:"min_pause_seconds"`
	MaxPauseSeconds  int    `mapstructure:"max_pause_seconds"`

	// ReplyProbability is the chance [0,1] of posting an AI reply after a
	// like. Only applies when AI generation is enabled.
	ReplyProbability float64 `mapstructure:"reply_probability"`
}

// PublishingConfig holds posting settings
type PublishingConfig struct {
	Strategies    []string `mapstructure:"strategies"`      // tried in order: api_v2, api_v11
	AttachImages  bool     `mapstructure:"attach_images"`
	MaxImageBytes int64    `mapstructure:"max_image_bytes"`
	FetchTimeout  string   `mapstructure:"fetch_timeout"`
}

// DatabaseConfig holds history database settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".twitter-bot"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("TWITTERBOT")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("twitter.bearer_token", "TWITTERBOT_TWITTER_BEARER_TOKEN")
	v.BindEnv("twitter.api_key", "TWITTERBOT_TWITTER_API_KEY")
	v.BindEnv("twitter.api_secret", "TWITTERBOT_TWITTER_API_SECRET")
	v.BindEnv("twitter.access_token", "TWITTERBOT_TWITTER_ACCESS_TOKEN")
	v.BindEnv("twitter.access_token_secret", "TWITTERBOT_TWITTER_ACCESS_TOKEN_SECRET")
	v.BindEnv("twitter.username", "TWITTERBOT_TWITTER_USERNAME")
	v.BindEnv("anthropic.enabled", "TWITTERBOT_ANTHROPIC_ENABLED")
	v.BindEnv("anthropic.api_key", "TWITTERBOT_ANTHROPIC_API_KEY")
	v.BindEnv("campaign.utm_link", "TWITTERBOT_CAMPAIGN_UTM_LINK")
	v.BindEnv("database.dsn", "TWITTERBOT_DATABASE_DSN")
	v.BindEnv("server.addr", "TWITTERBOT_SERVER_ADDR")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")

	// Anthropic defaults
	v.SetDefault("anthropic.enabled", false)
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.8)

	// Campaign defaults
	v.SetDefault("campaign.utm_link", "https://levva.fi?utm_source=plortal&utm_medium=twitter&utm_campaign=engagement")
	v.SetDefault("campaign.content_pool_file", "./data/content_pool.txt")
	v.SetDefault("campaign.image_pool_file", "./data/campaign_images.txt")
	v.SetDefault("campaign.keywords", []string{
		"DeFi", "yield farming", "APY", "crypto earnings", "Pendle", "AAVE",
		"Lido", "Morpho", "Curve", "Uniswap", "Ethereum staking",
		"passive income crypto", "smart vaults", "AI DeFi",
	})

	// Scheduler defaults: posts 3x daily, engagement 3x daily
	v.SetDefault("scheduler.post_crons", []string{
		"0 9 * * *",  // 9:00 AM
		"0 14 * * *", // 2:00 PM
		"0 19 * * *", // 7:00 PM
	})
	v.SetDefault("scheduler.engage_crons", []string{
		"30 10 * * *", // 10:30 AM
		"0 16 * * *",  // 4:00 PM
		"0 21 * * *",  // 9:00 PM
	})
	v.SetDefault("scheduler.thread_crons", []string{
		"0 11 * * 2", // Tuesday 11:00 AM
		"0 11 * * 5", // Friday 11:00 AM
	})

	// Throttle defaults
	v.SetDefault("throttle.min_post_gap", "2m")
	v.SetDefault("throttle.engagement_window", "15m")
	v.SetDefault("throttle.engagement_ceiling", 20)

	// Engagement defaults - conservative to avoid spam detection
	v.SetDefault("engagement.max_search_results", 10)
	v.SetDefault("engagement.max_likes_per_run", 3)
	v.SetDefault("engagement.min_tweet_likes", 1)
	v.SetDefault("engagement.max_tweet_likes", 5000)
	v.SetDefault("engagement.min_pause_seconds", 30)
	v.SetDefault("engagement.max_pause_seconds", 60)
	v.SetDefault("engagement.reply_probability", 0.4)

	// Publishing defaults
	v.SetDefault("publishing.strategies", []string{"api_v2", "api_v11"})
	v.SetDefault("publishing.attach_images", true)
	v.SetDefault("publishing.max_image_bytes", 5*1024*1024)
	v.SetDefault("publishing.fetch_timeout", "15s")

	// Database defaults
	v.SetDefault("database.dsn", "./data/bot.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Twitter.BearerToken == "" {
		return fmt.Errorf("twitter.bearer_token is required")
	}
	if c.Twitter.APIKey == "" {
		return fmt.Errorf("twitter.api_key is required")
	}
	if c.Twitter.APISecret == "" {
		return fmt.Errorf("twitter.api_secret is required")
	}
	if c.Twitter.AccessToken == "" {
		return fmt.Errorf("twitter.access_token is required")
	}
	if c.Twitter.AccessTokenSecret == "" {
		return fmt.Errorf("twitter.access_token_secret is required")
	}
	if c.Campaign.UTMLink == "" {
		return fmt.Errorf("campaign.utm_link is required")
	}
	if c.Anthropic.Enabled && c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required when anthropic.enabled is true")
	}
	return nil
}
