package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// NotificationsConfig controls which notifications are produced and when.
type NotificationsConfig struct {
	KillSwitch     bool // Disables the expiry scan entirely
	FrequencyHours int  // Width of the expiry scan window
}

// SMTPConfig holds outbound email settings. An empty Host disables email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL string

	// Auth: HS256 secret for indexer webhook bearer tokens
	JWTSecret string

	// CORS
	AllowedOrigins []string

	// Links rendered into notifications
	SiteURL     string
	ExplorerURL string

	// Data sources
	SubgraphURL string
	EthRPCURL   string

	// Event intake base URL used by the standalone expiry scan
	APIURL string

	// Name resolution cache (optional)
	RedisURL    string
	ENSCacheTTL time.Duration

	Notifications NotificationsConfig

	// Expiry scan scheduler
	ExpiryScanEnabled  bool
	ExpiryScanSchedule string        // Cron expression; defaults to one run per notification window
	ExpiryScanTimeout  time.Duration // Timeout for one scan

	// Delivery
	SMTP                 SMTPConfig
	DiscordWebhookURL    string
	DiscordRatePerSecond float64
}

func Load() *Config {
	frequencyHours := getIntEnv("NOTIFICATIONS_FREQUENCY_HOURS", 24)

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/pawnshop?sslmode=disable"),

		// Auth
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		// CORS
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		// Links
		SiteURL:     strings.TrimRight(getEnv("SITE_URL", "https://nftpawnshop.xyz"), "/"),
		ExplorerURL: strings.TrimRight(getEnv("EXPLORER_URL", "https://rinkeby.etherscan.io"), "/"),

		// Data sources
		SubgraphURL: getEnv("SUBGRAPH_URL", "https://api.thegraph.com/subgraphs/name/with-backed/backed-protocol-rinkeby"),
		EthRPCURL:   os.Getenv("ETH_RPC_URL"),

		APIURL: strings.TrimRight(getEnv("PAWN_SHOP_API_URL", "http://localhost:8080"), "/"),

		// Name cache
		RedisURL:    os.Getenv("REDIS_URL"),
		ENSCacheTTL: getDurationEnv("ENS_CACHE_TTL", time.Hour),

		Notifications: NotificationsConfig{
			KillSwitch:     getBoolEnv("NOTIFICATIONS_KILLSWITCH", false),
			FrequencyHours: frequencyHours,
		},

		// Expiry scan
		ExpiryScanEnabled:  getBoolEnv("EXPIRY_SCAN_ENABLED", true),
		ExpiryScanSchedule: getEnv("EXPIRY_SCAN_SCHEDULE", DefaultScanSchedule(frequencyHours)),
		ExpiryScanTimeout:  getDurationEnv("EXPIRY_SCAN_TIMEOUT", 5*time.Minute),

		// Delivery
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("EMAIL_FROM", "notifications@nftpawnshop.xyz"),
		},
		DiscordWebhookURL:    os.Getenv("DISCORD_WEBHOOK_URL"),
		DiscordRatePerSecond: getFloatEnv("DISCORD_RATE_PER_SECOND", 1),
	}
}

// DefaultScanSchedule returns a schedule that fires once every windowHours,
// so each loan falls in exactly one approaching-due window.
func DefaultScanSchedule(windowHours int) string {
	switch {
	case windowHours <= 0 || windowHours == 24:
		return "0 0 * * *"
	case windowHours < 24 && 24%windowHours == 0:
		return fmt.Sprintf("0 */%d * * *", windowHours)
	default:
		return fmt.Sprintf("@every %dh", windowHours)
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
