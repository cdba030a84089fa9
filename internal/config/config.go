// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile はLoadが読み込む.envファイルのパス。
const DefaultEnvFile = ".env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// Session
	SessionCookieName string
	SessionDuration   time.Duration

	// Server
	Port    string
	BaseURL string
	AppEnv  string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// Ollama
	OllamaHost    string
	OllamaTimeout time.Duration
	DefaultModel  string

	// Rate Limit（1分あたりの回数）
	RateLimitGeneral int
	RateLimitReview  int

	// Logging
	LogLevel string
}

// IsProduction は本番環境かどうかを返す。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load はカレントディレクトリの.envを読み込んだうえで環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	return LoadFrom(DefaultEnvFile)
}

// LoadFrom は指定された.envファイルを読み込んだうえで環境変数からConfigを読み込む。
// ファイルが存在しない場合は環境変数のみを使う。既に設定済みの環境変数は上書きしない。
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if cfg.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}

	cfg.GoogleCallbackURL = os.Getenv("GOOGLE_CALLBACK_URL")
	if cfg.GoogleCallbackURL == "" {
		missing = append(missing, "GOOGLE_CALLBACK_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.Port = getEnvString("PORT", "8000")
	cfg.BaseURL = getEnvString("BASE_URL", "/")
	cfg.AppEnv = getEnvString("APP_ENV", "development")
	cfg.SessionCookieName = getEnvString("SESSION_COOKIE_NAME", "session_token")
	cfg.SessionDuration = getEnvHours("SESSION_DURATION_HOURS", time.Hour)
	cfg.CookieSecure = cfg.IsProduction()
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	cfg.OllamaHost = getEnvString("OLLAMA_HOST", "http://localhost:11434")
	cfg.OllamaTimeout = getEnvDuration("OLLAMA_TIMEOUT", 120*time.Second)
	cfg.DefaultModel = getEnvString("DEFAULT_MODEL", "llama3.2")
	cfg.RateLimitGeneral = getEnvPositiveInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitReview = getEnvPositiveInt("RATE_LIMIT_REVIEW", 10)
	cfg.MigrateOnStart = getEnvBool("MIGRATE_ON_START", false)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvPositiveInt は正の整数を読み込む。未設定、不正値、0以下はデフォルト値。
func getEnvPositiveInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

// getEnvHours は時間数（小数可）をDurationとして読み込む。
// 未設定、不正値、0以下、Durationに収まらない値はデフォルト値。
func getEnvHours(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	h, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(h) || h <= 0 {
		return defaultVal
	}
	ns := h * float64(time.Hour)
	if ns >= math.MaxInt64 {
		return defaultVal
	}
	d := time.Duration(ns)
	if d <= 0 {
		return defaultVal
	}
	return d
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
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
