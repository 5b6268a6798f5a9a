package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	DAC        PortalConfig     `mapstructure:"dac"`
	Datasource DatasourceConfig `mapstructure:"datasource"`
	Worklist   WorklistConfig   `mapstructure:"worklist"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// PortalConfig holds the settings for one upstream portal
type PortalConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatasourceConfig holds the Datasource portal settings
type DatasourceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// ProbeFormID names a known protected view page used as the login
	// liveness probe
	ProbeFormID string `mapstructure:"probe_form_id"`
}

// WorklistConfig holds queue filtering and prefetch configuration
type WorklistConfig struct {
	Type            string        `mapstructure:"type"`
	InProcessStatus string        `mapstructure:"in_process_status"`
	PrefetchTTL     time.Duration `mapstructure:"prefetch_ttl"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)

	viper.SetDefault("database.path", "data/bapp-review.db")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 2)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("dac.timeout", 30*time.Second)
	viper.SetDefault("datasource.timeout", 30*time.Second)
	viper.SetDefault("datasource.probe_form_id", "84817")

	viper.SetDefault("worklist.type", "DAC")
	viper.SetDefault("worklist.in_process_status", "Proses")
	viper.SetDefault("worklist.prefetch_ttl", 10*time.Minute)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("dac.base_url", "DAC_URL")
	viper.BindEnv("datasource.base_url", "DATASOURCE_URL")
	viper.BindEnv("datasource.probe_form_id", "DATASOURCE_PROBE_FORM_ID")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DAC.BaseURL == "" {
		return fmt.Errorf("dac.base_url is required")
	}
	if c.Datasource.BaseURL == "" {
		return fmt.Errorf("datasource.base_url is required")
	}
	if c.Datasource.ProbeFormID == "" {
		return fmt.Errorf("datasource.probe_form_id is required")
	}
	return nil
}
