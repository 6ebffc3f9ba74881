package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/triple-t/railbot/internal/pkg/validator"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Feed     FeedConfig
	Line     LineConfig
	Ingest   IngestConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host         string `validate:"required"`
	Port         int    `validate:"required"`
	User         string `validate:"required"`
	Password     string
	DBName       string `validate:"required"`
	SSLMode      string
	MaxConns     int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	ResultTTL time.Duration
}

type LogConfig struct {
	Level string
}

// FeedCredential is one (app id, app key) pair for the transit-data
// platform. The feed client cycles through candidates when the platform
// rejects a key.
type FeedCredential struct {
	AppID  string
	AppKey string
}

type FeedConfig struct {
	BaseURL        string `validate:"required,url"`
	Keys           []FeedCredential
	RequestTimeout time.Duration
	RetriesPerKey  int
	RetryBackoff   time.Duration
}

type LineConfig struct {
	BaseURL       string
	ChannelSecret string
	ChannelToken  string
}

type IngestConfig struct {
	RunAt          string // 24-hour wall clock HH:MM
	TRAWindowDays  int
	THSRWindowDays int
	RunOnStartup   bool
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Environment-only deployments carry no .env file.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !strings.Contains(err.Error(), "no such file") {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:     viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			ResultTTL: time.Duration(viper.GetInt("RESULT_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Feed: FeedConfig{
			BaseURL:        viper.GetString("PTX_BASE_URL"),
			Keys:           parseFeedKeys(viper.GetString("PTX_APP_KEYS")),
			RequestTimeout: time.Duration(viper.GetInt("PTX_REQUEST_TIMEOUT")) * time.Second,
			RetriesPerKey:  viper.GetInt("PTX_RETRIES_PER_KEY"),
			RetryBackoff:   time.Duration(viper.GetInt("PTX_RETRY_BACKOFF_MS")) * time.Millisecond,
		},
		Line: LineConfig{
			BaseURL:       viper.GetString("LINE_API_BASE_URL"),
			ChannelSecret: viper.GetString("LINE_CHANNEL_SECRET"),
			ChannelToken:  viper.GetString("LINE_CHANNEL_ACCESS_TOKEN"),
		},
		Ingest: IngestConfig{
			RunAt:          viper.GetString("INGEST_RUN_AT"),
			TRAWindowDays:  viper.GetInt("INGEST_TRA_WINDOW_DAYS"),
			THSRWindowDays: viper.GetInt("INGEST_THSR_WINDOW_DAYS"),
			RunOnStartup:   viper.GetBool("INGEST_RUN_ON_STARTUP"),
		},
	}

	applyDefaults(cfg)

	if err := validator.Validate(&cfg.Database); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	if err := validator.Validate(&cfg.Feed); err != nil {
		return nil, fmt.Errorf("invalid feed config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Cache.ResultTTL == 0 {
		cfg.Cache.ResultTTL = time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Feed.BaseURL == "" {
		cfg.Feed.BaseURL = "http://ptx.transportdata.tw/MOTC"
	}
	if cfg.Feed.RequestTimeout == 0 {
		cfg.Feed.RequestTimeout = 30 * time.Second
	}
	if cfg.Feed.RetriesPerKey == 0 {
		cfg.Feed.RetriesPerKey = 2
	}
	if cfg.Feed.RetryBackoff == 0 {
		cfg.Feed.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Line.BaseURL == "" {
		cfg.Line.BaseURL = "https://api.line.me"
	}
	if cfg.Ingest.RunAt == "" {
		cfg.Ingest.RunAt = "00:00"
	}
	// TRA publishes roughly 60 days of daily timetables, THSR 45.
	if cfg.Ingest.TRAWindowDays == 0 {
		cfg.Ingest.TRAWindowDays = 60
	}
	if cfg.Ingest.THSRWindowDays == 0 {
		cfg.Ingest.THSRWindowDays = 45
	}
}

// parseFeedKeys parses "id1:key1,id2:key2" into credential candidates.
func parseFeedKeys(s string) []FeedCredential {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	keys := make([]FeedCredential, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, key, ok := strings.Cut(p, ":")
		if !ok {
			continue
		}
		keys = append(keys, FeedCredential{AppID: id, AppKey: key})
	}
	return keys
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
