// Package config loads the exchange service configuration from TOML with
// environment variable overrides and sane defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	// ServiceName identifies the process in logs and metrics.
	ServiceName string `mapstructure:"service_name"`
	// Environment is dev, staging or prod.
	Environment string `mapstructure:"environment"`
	// HTTP server settings.
	HTTP HTTPConfig `mapstructure:"http"`
	// Simulation cadences and model constants.
	Simulation SimulationConfig `mapstructure:"simulation"`
	// Instruments traded by the simulated market.
	Instruments []InstrumentConfig `mapstructure:"instruments"`
	// Database settings; persistence is skipped when the DSN is empty.
	Database DatabaseConfig `mapstructure:"database"`
	// Kafka settings; publishing is skipped when no brokers are set.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Logger settings.
	Logger LoggerConfig `mapstructure:"logger"`
	// Metrics settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// ReadTimeout in seconds. Streaming responses disable the write timeout.
	ReadTimeout int `mapstructure:"read_timeout"`
}

// SimulationConfig holds the market simulation parameters.
type SimulationConfig struct {
	// TickIntervalMs is the quote generation cadence per instrument.
	TickIntervalMs int `mapstructure:"tick_interval_ms"`
	// SampleIntervalMs is the cadence at which the quote stream is sampled
	// for HTTP subscribers.
	SampleIntervalMs int `mapstructure:"sample_interval_ms"`
	// BookIntervalMs is the order book synthesis cadence.
	BookIntervalMs int `mapstructure:"book_interval_ms"`
	// Omega is the angular frequency of the price waveform.
	Omega float64 `mapstructure:"omega"`
	// NoiseBound is the half-width of the uniform noise term.
	NoiseBound float64 `mapstructure:"noise_bound"`
	// ImpactFactor scales queued order imbalance into a price adjustment.
	ImpactFactor float64 `mapstructure:"impact_factor"`
	// BookInstrument anchors the synthesized ladder's base price.
	BookInstrument string `mapstructure:"book_instrument"`
	// AutoGenerate enables the periodic order book cycle at startup.
	AutoGenerate bool `mapstructure:"auto_generate"`
}

// InstrumentConfig describes one tradable instrument.
type InstrumentConfig struct {
	Symbol    string  `mapstructure:"symbol"`
	Median    float64 `mapstructure:"median"`
	Amplitude float64 `mapstructure:"amplitude"`
}

// DatabaseConfig holds GORM connection settings.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// KafkaConfig holds producer settings.
type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	MaxRetries   int      `mapstructure:"max_retries"`
	RetryBackoff int      `mapstructure:"retry_backoff"`
}

// LoggerConfig mirrors logger.Config for TOML binding.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

// MetricsConfig holds Prometheus exposure settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads the TOML file at configPath, applies APP_-prefixed environment
// overrides and defaults, and validates the result. A missing file is not an
// error; defaults alone describe a runnable simulation.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	_ = v.ReadInConfig()

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Instruments) == 0 {
		cfg.Instruments = defaultInstruments()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Simulation.TickIntervalMs <= 0 || c.Simulation.BookIntervalMs <= 0 {
		return fmt.Errorf("simulation intervals must be positive")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for _, inst := range c.Instruments {
		if inst.Symbol == "" {
			return fmt.Errorf("instrument symbol is required")
		}
		if seen[inst.Symbol] {
			return fmt.Errorf("duplicate instrument symbol: %s", inst.Symbol)
		}
		seen[inst.Symbol] = true
		if inst.Median <= 0 {
			return fmt.Errorf("instrument %s: median must be positive", inst.Symbol)
		}
	}
	if !seen[c.Simulation.BookInstrument] {
		return fmt.Errorf("book_instrument %s is not a configured instrument", c.Simulation.BookInstrument)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "exchange")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)

	v.SetDefault("simulation.tick_interval_ms", 200)
	v.SetDefault("simulation.sample_interval_ms", 1000)
	v.SetDefault("simulation.book_interval_ms", 500)
	v.SetDefault("simulation.omega", 0.05)
	v.SetDefault("simulation.noise_bound", 0.02)
	v.SetDefault("simulation.impact_factor", 10.0)
	v.SetDefault("simulation.book_instrument", "USD")
	v.SetDefault("simulation.auto_generate", true)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)

	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/exchange.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func defaultInstruments() []InstrumentConfig {
	return []InstrumentConfig{
		{Symbol: "USD", Median: 80, Amplitude: 0.15},
		{Symbol: "EUR", Median: 85, Amplitude: 0.15},
		{Symbol: "CNY", Median: 11, Amplitude: 0.15},
	}
}
