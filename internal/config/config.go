package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionCookieName  string
	SessionMaxAge      int // 秒
	SessionRenewWindow time.Duration

	// Credential
	PasswordHasher string

	// Rate Limit
	RateLimitGeneral int // req/min/user
	RateLimitAuth    int // req/min/IP

	// Worker
	SessionCleanupInterval time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// SessionTTL はSessionMaxAgeをtime.Durationで返す。
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionMaxAge) * time.Second
}

// Load は環境変数からConfigを読み込む。
// ENV_FILE（デフォルト .env）が存在すれば先に読み込むが、設定済みの環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadDotEnv(getEnvString("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionCookieName = getEnvString("SESSION_COOKIE_NAME", "session")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 2592000)
	cfg.SessionRenewWindow = getEnvDuration("SESSION_RENEW_WINDOW", 15*24*time.Hour)
	cfg.PasswordHasher = getEnvString("PASSWORD_HASHER", "sha256")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 10)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", 24*time.Hour)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate は値同士の整合性を検証する。
func (c *Config) validate() error {
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive: %d", c.SessionMaxAge)
	}
	if c.SessionRenewWindow <= 0 || c.SessionRenewWindow >= c.SessionTTL() {
		return fmt.Errorf("SESSION_RENEW_WINDOW must be between 0 and SESSION_MAX_AGE: %v", c.SessionRenewWindow)
	}
	if c.SessionCleanupInterval <= 0 {
		return fmt.Errorf("SESSION_CLEANUP_INTERVAL must be positive: %v", c.SessionCleanupInterval)
	}
	return nil
}

// loadDotEnv はpathのファイルを環境変数として読み込む。ファイルがなければ何もしない。
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
