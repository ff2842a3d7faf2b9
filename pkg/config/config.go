package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server (status API)
	Port string
	Env  string // development, staging, production

	// Snapshot storage
	Storage StorageConfig

	// Database (postgres snapshot store)
	Database DatabaseConfig

	// External APIs
	KIS     KISConfig
	Naver   NaverConfig
	Yahoo   YahooConfig
	Threads ThreadsConfig

	// Fallback strategy knobs
	Strategy StrategyConfig

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// StorageConfig holds snapshot store configuration
type StorageConfig struct {
	Driver     string // file | postgres
	DataDir    string
	RetainDays int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// KISConfig holds KIS (한국투자증권) API configuration
type KISConfig struct {
	AppKey    string
	AppSecret string
	AccountNo string
	BaseURL   string
}

// Configured reports whether KIS credentials are present
func (c KISConfig) Configured() bool {
	return c.AppKey != "" && c.AppSecret != ""
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL string
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	BaseURL string
}

// ThreadsConfig holds Threads Graph API configuration
type ThreadsConfig struct {
	AccessToken  string
	UserID       string
	BaseURL      string
	PublishDelay time.Duration // container processing wait before publish
}

// Configured reports whether Threads credentials are present
func (c ThreadsConfig) Configured() bool {
	return c.AccessToken != "" && c.UserID != ""
}

// StrategyConfig holds fallback strategy thresholds
// 근사-중복 구현마다 달랐던 임계값은 설정으로 통일
type StrategyConfig struct {
	StoredMinIndices int           // strict rule for stored snapshots
	LiveMinIndices   int           // rule for live merged data
	RequestInterval  time.Duration // minimum spacing between adapter calls
	SlotDelay        time.Duration // pause between run-all slots
	PersistClosing   bool          // persist tier-2 results for closing runs
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		// Snapshot storage
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "file"),
			DataDir:    getEnv("DATA_DIR", "market_data"),
			RetainDays: getEnvAsInt("RETAIN_DAYS", 30),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// External APIs
		KIS: KISConfig{
			AppKey:    getEnv("KIS_APP_KEY", ""),
			AppSecret: getEnv("KIS_APP_SECRET", ""),
			AccountNo: getEnv("KIS_ACCOUNT_NO", ""),
			BaseURL:   getEnv("KIS_BASE_URL", "https://openapi.koreainvestment.com:9443"),
		},

		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
		},

		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		},

		Threads: ThreadsConfig{
			AccessToken:  getEnv("THREADS_ACCESS_TOKEN", ""),
			UserID:       getEnv("THREADS_USER_ID", ""),
			BaseURL:      getEnv("THREADS_BASE_URL", "https://graph.threads.net/v1.0"),
			PublishDelay: getEnvAsDuration("THREADS_PUBLISH_DELAY", "5s"),
		},

		// Strategy
		Strategy: StrategyConfig{
			StoredMinIndices: getEnvAsInt("STORED_MIN_INDICES", 3),
			LiveMinIndices:   getEnvAsInt("LIVE_MIN_INDICES", 2),
			RequestInterval:  getEnvAsDuration("REQUEST_INTERVAL", "2s"),
			SlotDelay:        getEnvAsDuration("SLOT_DELAY", "2s"),
			PersistClosing:   getEnvAsBool("PERSIST_CLOSING", true),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Storage.Driver {
	case "file":
		// no further requirements
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of: file, postgres")
	}

	if c.Storage.RetainDays < 1 {
		return fmt.Errorf("RETAIN_DAYS must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
