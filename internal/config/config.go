package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SessionStoreKind はセッション永続化バックエンドの種別を表す。
type SessionStoreKind string

const (
	// SessionStoreFile はJSONファイルによる永続化（デフォルト）。
	SessionStoreFile SessionStoreKind = "file"
	// SessionStorePostgres はPostgreSQLによる永続化。
	SessionStorePostgres SessionStoreKind = "postgres"
	// SessionStoreRedis はRedisによる永続化。
	SessionStoreRedis SessionStoreKind = "redis"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Market API
	MarketAPIBaseURL   string
	MarketTimeout      time.Duration
	MarketAllowPrivate bool

	// Session persistence
	SessionStore    SessionStoreKind
	SessionFilePath string
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Rate Limit
	RateLimitGeneral int
	RateLimitCart    int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// SESSION_STOREの値に応じてDATABASE_URL/REDIS_ADDRが条件付きで必須になる。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.MarketAPIBaseURL = os.Getenv("MARKET_API_BASE_URL")
	if cfg.MarketAPIBaseURL == "" {
		missing = append(missing, "MARKET_API_BASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Session store selection
	kind := SessionStoreKind(getEnvString("SESSION_STORE", string(SessionStoreFile)))
	switch kind {
	case SessionStoreFile, SessionStorePostgres, SessionStoreRedis:
		cfg.SessionStore = kind
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE: %q (allowed: file, postgres, redis)", kind)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.SessionStore == SessionStorePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when SESSION_STORE=postgres")
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.SessionStore == SessionStoreRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required when SESSION_STORE=redis")
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	// Optional fields with defaults
	cfg.SessionFilePath = getEnvString("SESSION_FILE_PATH", "session.json")
	cfg.MarketTimeout = getEnvDuration("MARKET_TIMEOUT", 10*time.Second)
	cfg.MarketAllowPrivate = getEnvBool("MARKET_ALLOW_PRIVATE", false)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCart = getEnvInt("RATE_LIMIT_CART", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
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

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
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
