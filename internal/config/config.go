package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token Storeのバックエンド種別
const (
	TokenStoreFile     = "file"
	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
	TokenStoreMemory   = "memory"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backend
	APIBaseURL string
	APITimeout time.Duration

	// Token Store
	TokenStore string
	StateDir   string

	// Database (TOKEN_STORE=postgres)
	DatabaseURL string

	// Redis (TOKEN_STORE=redis)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate Limit
	RateLimitLogin int

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込むが、既存の環境変数は上書きしない。
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.APIBaseURL = strings.TrimRight(getEnvString("API_BASE_URL", "http://localhost:5000/api"), "/")
	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API_BASE_URL: %q", cfg.APIBaseURL)
	}
	// 既定では上限を設けず、応答のない呼び出しはその操作だけを待たせる
	cfg.APITimeout = getEnvDuration("API_TIMEOUT", 0)
	if cfg.APITimeout < 0 {
		cfg.APITimeout = 0
	}

	cfg.TokenStore = strings.ToLower(getEnvString("TOKEN_STORE", TokenStoreFile))
	cfg.StateDir = getEnvString("STATE_DIR", defaultStateDir())
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	switch cfg.TokenStore {
	case TokenStoreFile, TokenStoreRedis, TokenStoreMemory:
	case TokenStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("required environment variables are not set: [DATABASE_URL]")
		}
	default:
		return nil, fmt.Errorf("unsupported TOKEN_STORE: %q", cfg.TokenStore)
	}

	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")

	return cfg, nil
}

// loadDotEnv はpathの.envファイルを読み込む。ファイルがなければ何もしない。
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// defaultStateDir はユーザー設定ディレクトリ配下の状態保存先を返す。
func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".salesdash"
	}
	return filepath.Join(dir, "salesdash")
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
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
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
