package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Local         LocalConfig         `mapstructure:"local"`
	Cloud         CloudConfig         `mapstructure:"cloud"`
	Realtime      RealtimeConfig      `mapstructure:"realtime"`
	Sync          SyncConfig          `mapstructure:"sync"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// LocalConfig points at the SQLite cache kept in the platform user-data dir.
type LocalConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
	Debug       bool          `mapstructure:"debug"`
}

// CloudConfig is the Postgres (Supabase) source of truth.
type CloudConfig struct {
	Source          string        `mapstructure:"source" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type RealtimeConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Driver is "supabase" (websocket channel) or "postgres" (LISTEN/NOTIFY).
	Driver            string        `mapstructure:"driver" validate:"oneof=supabase postgres"`
	URL               string        `mapstructure:"url"`
	APIKey            string        `mapstructure:"api_key"`
	Channel           string        `mapstructure:"channel"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ReconnectBase     time.Duration `mapstructure:"reconnect_base"`
	ReconnectMax      time.Duration `mapstructure:"reconnect_max"`
}

type SyncConfig struct {
	StoreID      string        `mapstructure:"store_id"`
	BatchSize    int           `mapstructure:"batch_size"`
	PullSchedule string        `mapstructure:"pull_schedule"`
	PruneOnPull  bool          `mapstructure:"prune_on_pull"`
	MaxRetries   uint64        `mapstructure:"max_retries"`
	RetryBase    time.Duration `mapstructure:"retry_base"`
	PushWorkers  int           `mapstructure:"push_workers"`
	PushQueue    int           `mapstructure:"push_queue"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" validate:"required,min=32"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m,max=1h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"required,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ----------------- DEFAULTS -----------------

// DefaultLocalPath is the SQLite file under the user-data directory.
func DefaultLocalPath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			base = dir
		} else {
			base = "."
		}
	}
	return filepath.Join(base, "dealership-crm", "crm.db")
}

// ApplyDefaults fills zero values left by partial config files.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Local.Path == "" {
		c.Local.Path = DefaultLocalPath()
	}
	if c.Local.BusyTimeout == 0 {
		c.Local.BusyTimeout = 5 * time.Second
	}
	if c.Cloud.MaxOpenConns == 0 {
		c.Cloud.MaxOpenConns = 5
	}
	if c.Cloud.MaxIdleConns == 0 {
		c.Cloud.MaxIdleConns = 2
	}
	if c.Cloud.ConnMaxLifetime == 0 {
		c.Cloud.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Cloud.ConnMaxIdleTime == 0 {
		c.Cloud.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.Cloud.Timeout == 0 {
		c.Cloud.Timeout = 15 * time.Second
	}
	if c.Realtime.Driver == "" {
		c.Realtime.Driver = "supabase"
	}
	if c.Realtime.Channel == "" {
		c.Realtime.Channel = "crm_changes"
	}
	if c.Realtime.HeartbeatInterval == 0 {
		c.Realtime.HeartbeatInterval = 30 * time.Second
	}
	if c.Realtime.ReconnectBase == 0 {
		c.Realtime.ReconnectBase = time.Second
	}
	if c.Realtime.ReconnectMax == 0 {
		c.Realtime.ReconnectMax = time.Minute
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 200
	}
	if c.Sync.PullSchedule == "" {
		c.Sync.PullSchedule = "@every 5m"
	}
	if c.Sync.MaxRetries == 0 {
		c.Sync.MaxRetries = 3
	}
	if c.Sync.RetryBase == 0 {
		c.Sync.RetryBase = 500 * time.Millisecond
	}
	if c.Sync.PushWorkers == 0 {
		c.Sync.PushWorkers = 2
	}
	if c.Sync.PushQueue == 0 {
		c.Sync.PushQueue = 256
	}
	if c.Security.AccessTokenDuration == 0 {
		c.Security.AccessTokenDuration = 15 * time.Minute
	}
	if c.Security.RefreshTokenDuration == 0 {
		c.Security.RefreshTokenDuration = 7 * 24 * time.Hour
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 10
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// LoadConfigFromEnv builds the config for packaged deployments where no
// config.yml ships alongside the binary.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("HTTP_BASE_URL", ""),
			AllowedOrigins:    getEnv("HTTP_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Local: LocalConfig{
			Path: getEnv("LOCAL_DB_PATH", ""),
		},
		Cloud: CloudConfig{
			Source:       getEnv("CLOUD_DATABASE_URL", ""),
			MaxOpenConns: getEnvAsInt("CLOUD_MAX_OPEN_CONNS", 5),
			MaxIdleConns: getEnvAsInt("CLOUD_MAX_IDLE_CONNS", 2),
		},
		Realtime: RealtimeConfig{
			Enabled: getEnv("REALTIME_ENABLED", "false") == "true",
			Driver:  getEnv("REALTIME_DRIVER", "supabase"),
			URL:     getEnv("SUPABASE_REALTIME_URL", ""),
			APIKey:  getEnv("SUPABASE_ANON_KEY", ""),
		},
		Sync: SyncConfig{
			StoreID:      getEnv("SYNC_STORE_ID", ""),
			BatchSize:    getEnvAsInt("SYNC_BATCH_SIZE", 200),
			PullSchedule: getEnv("SYNC_PULL_SCHEDULE", "@every 5m"),
			PruneOnPull:  getEnv("SYNC_PRUNE_ON_PULL", "false") == "true",
		},
		Security: SecurityConfig{
			AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
			BCryptCost:         getEnvAsInt("BCRYPT_COST", 10),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
				File:   getEnv("LOG_FILE", ""),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Cloud.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("cloud config: %v", err))
	}

	if err := c.Realtime.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("realtime config: %v", err))
	}

	if err := c.Sync.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("sync config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *CloudConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *CloudConfig) GetDSN() string {
	return c.Source
}

func (c *RealtimeConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Driver {
	case "supabase":
		if c.URL == "" {
			return errors.New("url is required for the supabase driver")
		}
		if _, err := url.Parse(c.URL); err != nil {
			return fmt.Errorf("invalid realtime url: %w", err)
		}
		if c.APIKey == "" {
			return errors.New("api_key is required for the supabase driver")
		}
	case "postgres":
		if c.Channel == "" {
			return errors.New("channel is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown realtime driver %q", c.Driver)
	}
	return nil
}

func (c *SyncConfig) Validate() error {
	if c.BatchSize < 1 {
		return errors.New("batch_size must be at least 1")
	}
	if c.PushWorkers < 1 {
		return errors.New("push_workers must be at least 1")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	return nil
}
