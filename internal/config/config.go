// Package config loads and validates kapmirror configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Source  SourceConfig  `mapstructure:"source"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Enrich  EnrichConfig  `mapstructure:"enrich"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DBConfig controls access to the Postgres mirror database.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	RecordsTable    string        `mapstructure:"records_table"`
	EntitiesTable   string        `mapstructure:"entities_table"`
	RefreshLogTable string        `mapstructure:"refresh_log_table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// SourceConfig describes the remote disclosure platform.
type SourceConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Language  string        `mapstructure:"language"`
	UserAgent string        `mapstructure:"user_agent"`
	ProxyURL  string        `mapstructure:"proxy_url"`
	Bearer    string        `mapstructure:"bearer_token"`
	InitialID int64         `mapstructure:"initial_id"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CrawlConfig governs the forward crawler.
type CrawlConfig struct {
	Throttle time.Duration `mapstructure:"throttle"`
}

// RefreshConfig governs range refresh behavior.
type RefreshConfig struct {
	Throttle   time.Duration `mapstructure:"throttle"`
	Backoff    time.Duration `mapstructure:"backoff"`
	FlushEvery int           `mapstructure:"flush_every"`
}

// EnrichConfig governs the summarization batch job.
type EnrichConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	BatchSize     int           `mapstructure:"batch_size"`
	Deadline      time.Duration `mapstructure:"deadline"`
	MaxInputChars int           `mapstructure:"max_input_chars"`
}

// MetricsConfig enables the optional Prometheus listener for long jobs.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. A .env file next to the
// binary feeds AutomaticEnv before Viper reads anything, so local runs
// and deployments share the same lookup path.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("KAPMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.records_table", "records")
	v.SetDefault("db.entities_table", "entities")
	v.SetDefault("db.refresh_log_table", "refresh_log")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime", "30m")

	v.SetDefault("source.base_url", "https://www.kap.org.tr")
	v.SetDefault("source.language", "tr")
	v.SetDefault("source.user_agent", "kapmirror/0.1")
	v.SetDefault("source.initial_id", 1083300)
	v.SetDefault("source.timeout", "15s")

	v.SetDefault("crawl.throttle", "200ms")

	v.SetDefault("refresh.throttle", "500ms")
	v.SetDefault("refresh.backoff", "10s")
	v.SetDefault("refresh.flush_every", 50)

	v.SetDefault("enrich.model", "gemini-2.5-flash-lite")
	v.SetDefault("enrich.batch_size", 100)
	v.SetDefault("enrich.deadline", "15s")
	v.SetDefault("enrich.max_input_chars", 4097)

	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must be set")
	}
	if c.Source.Language == "" {
		return fmt.Errorf("source.language must be set")
	}
	if c.Source.InitialID <= 0 {
		return fmt.Errorf("source.initial_id must be > 0")
	}
	if c.Refresh.Backoff <= 0 {
		return fmt.Errorf("refresh.backoff must be > 0")
	}
	if c.Refresh.FlushEvery <= 0 {
		return fmt.Errorf("refresh.flush_every must be > 0")
	}
	if c.Enrich.BatchSize <= 0 {
		return fmt.Errorf("enrich.batch_size must be > 0")
	}
	if c.Enrich.MaxInputChars <= 0 {
		return fmt.Errorf("enrich.max_input_chars must be > 0")
	}
	if c.Enrich.Deadline <= 0 {
		return fmt.Errorf("enrich.deadline must be > 0")
	}
	return nil
}
