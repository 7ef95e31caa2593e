// Package config loads the application configuration from config.yaml and
// LEADRADAR_* environment variables, and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geo    GeoConfig    `yaml:"geo" mapstructure:"geo"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Retry  RetryConfig  `yaml:"retry" mapstructure:"retry"`
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// GeoConfig configures the geodata collaborators.
type GeoConfig struct {
	NominatimURL string  `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	OverpassURL  string  `yaml:"overpass_url" mapstructure:"overpass_url"`
	Country      string  `yaml:"country" mapstructure:"country"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	NominatimRPS float64 `yaml:"nominatim_rps" mapstructure:"nominatim_rps"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	// Driver is sqlite (default), postgres, or memory.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLSecs     int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// TTL returns the configured entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// RetryConfig configures the retry policy for geodata calls.
type RetryConfig struct {
	MaxAttempts int   `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffMS   []int `yaml:"backoff_ms" mapstructure:"backoff_ms"`
}

// Backoff returns the backoff schedule as durations.
func (c RetryConfig) Backoff() []time.Duration {
	out := make([]time.Duration, 0, len(c.BackoffMS))
	for _, ms := range c.BackoffMS {
		out = append(out, time.Duration(ms)*time.Millisecond)
	}
	return out
}

// EnrichConfig configures website enrichment.
type EnrichConfig struct {
	Concurrency      int     `yaml:"concurrency" mapstructure:"concurrency"`
	PerHostRPS       float64 `yaml:"per_host_rps" mapstructure:"per_host_rps"`
	PageTimeoutSecs  int     `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
	ProbeTimeoutSecs int     `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
	CountryCode      string  `yaml:"country_code" mapstructure:"country_code"`
}

// ExportConfig configures the export collaborator.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("geo.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geo.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("geo.country", "Deutschland")
	v.SetDefault("geo.user_agent", "leadradar/1.0 (lead research; contact: ops@leadradar.local)")
	v.SetDefault("geo.nominatim_rps", 1.0)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", "leadradar.db")
	v.SetDefault("cache.ttl_secs", 86400)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff_ms", []int{300, 800, 1500})
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("enrich.per_host_rps", 1.0)
	v.SetDefault("enrich.page_timeout_secs", 10)
	v.SetDefault("enrich.probe_timeout_secs", 5)
	v.SetDefault("enrich.country_code", "+49")
	v.SetDefault("export.dir", "exports")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Default returns the configuration produced by defaults alone. Used by
// "config init" to write an annotated starting file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always unmarshal cleanly.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
