package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string
	DiscordGuildID string

	// Database configuration
	DatabaseURL string

	// Goated API configuration
	GoatedAPIURL      string
	GoatedAPIKey      string
	AffiliateIDs      []string
	RequestsPerMinute int

	// Cache and ledger configuration
	CacheTTL            time.Duration
	LedgerRetentionDays int

	// Leaderboard snapshot configuration
	SnapshotSize     int
	SnapshotTimezone string

	// Admin configuration
	AdminDiscordIDs []int64 // Discord IDs that can resolve reward requests

	// Environment
	Environment string // "development" or "production"
}

// Load reads configuration from environment variables and validates the
// required values. Tests construct Config directly instead.
func Load() (*Config, error) {
	config := &Config{
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		GoatedAPIURL: os.Getenv("GOATED_API_URL"),
		GoatedAPIKey: os.Getenv("GOATED_API_KEY"),

		// Defaults
		RequestsPerMinute:   30,
		CacheTTL:            5 * time.Minute,
		LedgerRetentionDays: 30,
		SnapshotSize:        10,
		SnapshotTimezone:    "America/Chicago",

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.GoatedAPIURL == "" {
		config.GoatedAPIURL = "https://api.goated.com"
	}

	// Override defaults if environment variables are set
	if rpm := os.Getenv("GOATED_REQUESTS_PER_MINUTE"); rpm != "" {
		if parsed, err := strconv.Atoi(rpm); err == nil && parsed > 0 {
			config.RequestsPerMinute = parsed
		}
	}
	if ttl := os.Getenv("CACHE_TTL_SECONDS"); ttl != "" {
		if parsed, err := strconv.Atoi(ttl); err == nil && parsed > 0 {
			config.CacheTTL = time.Duration(parsed) * time.Second
		}
	}
	if retention := os.Getenv("LEDGER_RETENTION_DAYS"); retention != "" {
		if parsed, err := strconv.Atoi(retention); err == nil && parsed > 0 {
			config.LedgerRetentionDays = parsed
		}
	}
	if size := os.Getenv("SNAPSHOT_SIZE"); size != "" {
		if parsed, err := strconv.Atoi(size); err == nil && parsed > 0 {
			config.SnapshotSize = parsed
		}
	}
	if tz := os.Getenv("SNAPSHOT_TIMEZONE"); tz != "" {
		config.SnapshotTimezone = tz
	}

	config.AffiliateIDs = splitList(os.Getenv("AFFILIATE_IDS"))
	config.AdminDiscordIDs = splitIDList(os.Getenv("ADMIN_DISCORD_IDS"))

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if len(config.AffiliateIDs) == 0 {
			return nil, fmt.Errorf("AFFILIATE_IDS is required")
		}
	}

	return config, nil
}

// IsAdmin reports whether the Discord ID may resolve reward requests.
func (c *Config) IsAdmin(discordID int64) bool {
	for _, id := range c.AdminDiscordIDs {
		if id == discordID {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitIDList(raw string) []int64 {
	var out []int64
	for _, part := range splitList(raw) {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}
