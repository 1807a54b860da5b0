package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API Keys
	NewsAPIKey      string
	FactCheckAPIKey string

	// Headline
	Country       string
	Language      string
	PageSize      int
	FetchTimeout  time.Duration
	FetchMaxSize  int64
	RSSFeeds      map[string]string // カテゴリ名 -> フィードURL（フォールバックプロバイダ用）

	// Verification
	RulesPath      string // 空の場合は組み込みルールセットを使用
	SourceWeight   float64
	ContentWeight  float64
	UpperThreshold float64
	LowerThreshold float64

	// Refresh
	RefreshInterval   time.Duration
	RefreshCategories []string

	// Rate Limit
	RateLimitGeneral int
	RateLimitVerify  int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	if cfg.NewsAPIKey == "" {
		missing = append(missing, "NEWS_API_KEY")
	}

	cfg.FactCheckAPIKey = os.Getenv("FACTCHECK_API_KEY")
	if cfg.FactCheckAPIKey == "" {
		missing = append(missing, "FACTCHECK_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.Country = getEnvString("NEWS_COUNTRY", "us")
	cfg.Language = getEnvString("NEWS_LANGUAGE", "en")
	cfg.PageSize = getEnvInt("NEWS_PAGE_SIZE", 20)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 2097152)
	cfg.RSSFeeds = parseRSSFeeds(os.Getenv("RSS_FEEDS"))

	cfg.RulesPath = getEnvString("VERIFY_RULES_PATH", "")
	cfg.SourceWeight = getEnvFloat("VERIFY_SOURCE_WEIGHT", 0.7)
	cfg.ContentWeight = getEnvFloat("VERIFY_CONTENT_WEIGHT", 0.3)
	cfg.UpperThreshold = getEnvFloat("VERIFY_UPPER_THRESHOLD", 0.8)
	cfg.LowerThreshold = getEnvFloat("VERIFY_LOWER_THRESHOLD", 0.4)

	cfg.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", 15*time.Minute)
	cfg.RefreshCategories = parseList(os.Getenv("REFRESH_CATEGORIES"))

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitVerify = getEnvInt("RATE_LIMIT_VERIFY", 30)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// parseRSSFeeds は "category=url,category=url" 形式の文字列をマップに変換する。
// 不正なエントリは無視する。
func parseRSSFeeds(raw string) map[string]string {
	feeds := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		category, feedURL, ok := strings.Cut(entry, "=")
		if !ok || category == "" || feedURL == "" {
			continue
		}
		feeds[strings.TrimSpace(category)] = strings.TrimSpace(feedURL)
	}
	return feeds
}

// parseList はカンマ区切りの文字列をスライスに変換する。
func parseList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
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
