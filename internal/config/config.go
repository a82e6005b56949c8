// backend-go/internal/config/config.go
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Storage       StorageConfig
	Replenishment ReplenishmentConfig
	Log           LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string // postgres, pgx or sqlite3
	URL      string // full DSN; overrides the discrete fields when set
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite database file
}

type CacheConfig struct {
	Enabled               bool
	RedisURL              string
	RedisHost             string
	RedisPort             string
	RedisPassword         string
	RedisDB               int
	SuggestionsTTLSeconds int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type ReplenishmentConfig struct {
	LookbackWeeks        int
	AnchorDate           time.Time
	DefaultLeadTimeWeeks int
	DefaultCoverageWeeks int
	DefaultServiceLevel  string
	ZTable               string // empty means the built-in step table
}

type LogConfig struct {
	Level  string
	Format string // console or json
}

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

// SetDefaults registers every default value on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sales")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "./data/sales.db")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_SUGGESTIONS_TTL_SECONDS", 300)
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PREFIX", "reports/replenishment")
	v.SetDefault("REPLENISHMENT_LOOKBACK_WEEKS", 12)
	v.SetDefault("REPLENISHMENT_ANCHOR_DATE", "2000-01-03")
	v.SetDefault("REPLENISHMENT_DEFAULT_LEAD_TIME_WEEKS", 1)
	v.SetDefault("REPLENISHMENT_DEFAULT_COVERAGE_WEEKS", 2)
	v.SetDefault("REPLENISHMENT_DEFAULT_SERVICE_LEVEL", "0.95")
	v.SetDefault("REPLENISHMENT_Z_TABLE", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// Load reads the process configuration once from .env and the environment
func Load() (*Config, error) {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		SetDefaults(v)
		v.AutomaticEnv()

		instance, loadErr = FromViper(v)
	})

	return instance, loadErr
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	anchorRaw := v.GetString("REPLENISHMENT_ANCHOR_DATE")
	anchor, err := time.Parse("2006-01-02", anchorRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid REPLENISHMENT_ANCHOR_DATE %q: %w", anchorRaw, err)
	}
	if anchor.Weekday() != time.Monday {
		return nil, fmt.Errorf("invalid REPLENISHMENT_ANCHOR_DATE %q: must be a Monday", anchorRaw)
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			URL:      v.GetString("DB_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Path:     v.GetString("DB_PATH"),
		},
		Cache: CacheConfig{
			Enabled:               v.GetBool("CACHE_ENABLED"),
			RedisURL:              v.GetString("REDIS_URL"),
			RedisHost:             v.GetString("REDIS_HOST"),
			RedisPort:             v.GetString("REDIS_PORT"),
			RedisPassword:         v.GetString("REDIS_PASSWORD"),
			RedisDB:               v.GetInt("REDIS_DB"),
			SuggestionsTTLSeconds: v.GetInt("CACHE_SUGGESTIONS_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
		},
		Replenishment: ReplenishmentConfig{
			LookbackWeeks:        v.GetInt("REPLENISHMENT_LOOKBACK_WEEKS"),
			AnchorDate:           anchor,
			DefaultLeadTimeWeeks: v.GetInt("REPLENISHMENT_DEFAULT_LEAD_TIME_WEEKS"),
			DefaultCoverageWeeks: v.GetInt("REPLENISHMENT_DEFAULT_COVERAGE_WEEKS"),
			DefaultServiceLevel:  v.GetString("REPLENISHMENT_DEFAULT_SERVICE_LEVEL"),
			ZTable:               v.GetString("REPLENISHMENT_Z_TABLE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}, nil
}
