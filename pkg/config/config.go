package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	AdminToken  string `yaml:"admin_token"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Cache struct {
		Backend         string                   `yaml:"backend"` // memory or redis
		FreshnessWindow time.Duration            `yaml:"freshness_window"`
		PerIndicator    map[string]time.Duration `yaml:"per_indicator"`
		FallbackWindow  time.Duration            `yaml:"fallback_window"`
		Redis           struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Storage struct {
		Backend    string `yaml:"backend"` // clickhouse or memory
		ClickHouse struct {
			Host             string        `yaml:"host"`
			Port             int           `yaml:"port"`
			Database         string        `yaml:"database"`
			User             string        `yaml:"user"`
			Password         string        `yaml:"password"`
			DialTimeout      time.Duration `yaml:"dial_timeout"`
			ReadTimeout      time.Duration `yaml:"read_timeout"`
			WriteTimeout     time.Duration `yaml:"write_timeout"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		} `yaml:"clickhouse"`
	} `yaml:"storage"`
	Subscriptions struct {
		Backend  string `yaml:"backend"` // postgres or memory
		Postgres struct {
			DSN      string `yaml:"dsn"`
			MaxConns int    `yaml:"max_conns"`
		} `yaml:"postgres"`
	} `yaml:"subscriptions"`
	Providers struct {
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		BackoffMin     time.Duration `yaml:"backoff_min"`
		BackoffMax     time.Duration `yaml:"backoff_max"`
		UseMock        bool          `yaml:"use_mock"`
		CNN            struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"cnn"`
		Alternative struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"alternative"`
		Yahoo struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"yahoo"`
	} `yaml:"providers"`
	Scheduler struct {
		TickInterval          time.Duration `yaml:"tick_interval"`
		ForcedRefreshInterval time.Duration `yaml:"forced_refresh_interval"`
		GraceWindow           time.Duration `yaml:"grace_window"`
		MaxSendsPerSecond     float64       `yaml:"max_sends_per_second"`
		RetentionDays         int           `yaml:"retention_days"`
		QuietHours            struct {
			Start string `yaml:"start"` // HH:MM, empty disables
			End   string `yaml:"end"`
		} `yaml:"quiet_hours"`
	} `yaml:"scheduler"`
	Outbound struct {
		Type     string `yaml:"type"` // telegram or kafka
		Telegram struct {
			APIBase  string        `yaml:"api_base"`
			BotToken string        `yaml:"bot_token"`
			Timeout  time.Duration `yaml:"timeout"`
		} `yaml:"telegram"`
		Kafka struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"kafka"`
	} `yaml:"outbound"`
	Bounds map[string]struct {
		Min float64 `yaml:"min"`
		Max float64 `yaml:"max"`
	} `yaml:"bounds"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Outbound.Telegram.BotToken = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Outbound.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v, c.Cache.Redis.Port)
		c.Cache.Redis.Host = host
		c.Cache.Redis.Port = port
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.Storage.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.Storage.ClickHouse.Password = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Subscriptions.Postgres.DSN = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.AdminToken = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.FreshnessWindow == 0 {
		c.Cache.FreshnessWindow = 30 * time.Minute
	}
	if c.Cache.FallbackWindow == 0 {
		c.Cache.FallbackWindow = 3 * time.Hour
	}
	if c.Providers.RequestTimeout == 0 {
		c.Providers.RequestTimeout = 30 * time.Second
	}
	if c.Providers.MaxRetries == 0 {
		c.Providers.MaxRetries = 3
	}
	if c.Providers.BackoffMin == 0 {
		c.Providers.BackoffMin = 500 * time.Millisecond
	}
	if c.Providers.BackoffMax == 0 {
		c.Providers.BackoffMax = 10 * time.Second
	}
	if c.Scheduler.TickInterval == 0 {
		c.Scheduler.TickInterval = time.Minute
	}
	if c.Scheduler.ForcedRefreshInterval == 0 {
		c.Scheduler.ForcedRefreshInterval = time.Hour
	}
	if c.Scheduler.GraceWindow == 0 {
		c.Scheduler.GraceWindow = 6 * time.Hour
	}
	if c.Scheduler.MaxSendsPerSecond == 0 {
		c.Scheduler.MaxSendsPerSecond = 20
	}
	if c.Scheduler.RetentionDays == 0 {
		c.Scheduler.RetentionDays = 30
	}
}

// FreshnessFor returns the freshness window for one indicator, falling back
// to the global default.
func (c *Config) FreshnessFor(indicator string) time.Duration {
	if d, ok := c.Cache.PerIndicator[indicator]; ok && d > 0 {
		return d
	}
	return c.Cache.FreshnessWindow
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	switch c.Storage.Backend {
	case "clickhouse", "memory":
	default:
		return fmt.Errorf("storage.backend must be 'clickhouse' or 'memory', got '%s'", c.Storage.Backend)
	}
	switch c.Subscriptions.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("subscriptions.backend must be 'postgres' or 'memory', got '%s'", c.Subscriptions.Backend)
	}
	switch c.Outbound.Type {
	case "telegram", "kafka":
	default:
		return fmt.Errorf("outbound.type must be 'telegram' or 'kafka', got '%s'", c.Outbound.Type)
	}
	if c.Outbound.Type == "telegram" && c.Outbound.Telegram.BotToken == "" && !c.Providers.UseMock {
		return fmt.Errorf("outbound.telegram.bot_token is required")
	}
	if c.Outbound.Type == "kafka" && len(c.Outbound.Kafka.Brokers) == 0 {
		return fmt.Errorf("outbound.kafka.brokers cannot be empty")
	}
	if c.Cache.FallbackWindow < c.Cache.FreshnessWindow {
		return fmt.Errorf("cache.fallback_window must be >= cache.freshness_window")
	}
	if c.Scheduler.MaxSendsPerSecond <= 0 {
		return fmt.Errorf("scheduler.max_sends_per_second must be positive")
	}
	return nil
}

func splitHostPort(addr string, defPort int) (string, int) {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 {
		return addr, defPort
	}
	var port int
	if _, err := fmt.Sscanf(addr[i+1:], "%d", &port); err != nil || port == 0 {
		return addr, defPort
	}
	return addr[:i], port
}
