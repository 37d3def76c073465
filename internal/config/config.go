package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Media
	// MediaURL は画像公開URLのプレフィックス。絶対URL（http始まり）の
	// 場合はそのまま、相対パスの場合はHTTPOriginが前置される。
	MediaURL   string
	HTTPOrigin string
	MediaRoot  string
	// MediaBackend は画像保存先バックエンド（fs または gcs）。
	MediaBackend string
	GCSBucket    string
	GCSPrefix    string

	// Bake
	BakeTimeout time.Duration
	BakeMaxSize int64
	BakeRate    float64

	// Server
	ServerPort string
}

// メディアバックエンドの種別。
const (
	MediaBackendFS  = "fs"
	MediaBackendGCS = "gcs"
)

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.HTTPOrigin = os.Getenv("HTTP_ORIGIN")
	if cfg.HTTPOrigin == "" {
		missing = append(missing, "HTTP_ORIGIN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.MediaURL = getEnvString("MEDIA_URL", "/media/")
	cfg.MediaRoot = getEnvString("MEDIA_ROOT", "./media")
	cfg.MediaBackend = getEnvString("MEDIA_BACKEND", MediaBackendFS)
	cfg.GCSBucket = getEnvString("GCS_BUCKET", "")
	cfg.GCSPrefix = getEnvString("GCS_PREFIX", "")
	cfg.BakeTimeout = getEnvDuration("BAKE_TIMEOUT", 10*time.Second)
	cfg.BakeMaxSize = getEnvInt64("BAKE_MAX_SIZE", 5242880)
	cfg.BakeRate = getEnvFloat("BAKE_RATE", 2.0)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	if cfg.MediaBackend != MediaBackendFS && cfg.MediaBackend != MediaBackendGCS {
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND: %s", cfg.MediaBackend)
	}
	if cfg.MediaBackend == MediaBackendGCS && cfg.GCSBucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required when MEDIA_BACKEND=gcs")
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
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
