package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabasesConfig    `mapstructure:"database"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Consent      ConsentConfig      `mapstructure:"consent"`
	Export       ExportConfig       `mapstructure:"export"`
	Deletion     DeletionConfig     `mapstructure:"deletion"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Artifact     ArtifactConfig     `mapstructure:"artifact"`
	Notification NotificationConfig `mapstructure:"notification"`
	CORS         CORSConfig         `mapstructure:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Privacy DatabaseConfig `mapstructure:"privacy"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ConsentConfig holds consent ledger configuration
type ConsentConfig struct {
	// ExpiryWindows maps a consent type name to the number of months a
	// grant stays current before forced re-consent. A zero value means
	// the grant never expires.
	ExpiryWindows       map[string]int `mapstructure:"expiry_windows"`
	DefaultExpiryMonths int            `mapstructure:"default_expiry_months"`
}

// ExpiryWindowMonths returns the re-consent window for a consent type.
func (c *ConsentConfig) ExpiryWindowMonths(consentType string) int {
	if months, ok := c.ExpiryWindows[consentType]; ok {
		return months
	}
	return c.DefaultExpiryMonths
}

// ExportConfig holds data export workflow configuration
type ExportConfig struct {
	// RateLimitWindow is the minimum time between export requests per user.
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
	// ArtifactTTLDays is how long a completed export stays downloadable.
	ArtifactTTLDays int `mapstructure:"artifact_ttl_days"`
	// ProcessingTimeout is how long a request may sit in Processing
	// before the sweep fails it as abandoned. Zero disables the recovery.
	ProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
}

// DeletionConfig holds account deletion workflow configuration
type DeletionConfig struct {
	TokenTTLDays       int `mapstructure:"token_ttl_days"`
	RecoveryPeriodDays int `mapstructure:"recovery_period_days"`
	// ScheduleDelayDays is the gap between confirmation and the earliest
	// scheduled deletion execution.
	ScheduleDelayDays int `mapstructure:"schedule_delay_days"`
}

// SchedulerConfig holds background sweep configuration
type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	RetentionInterval time.Duration `mapstructure:"retention_interval"`
}

// ArtifactConfig holds export artifact storage configuration
type ArtifactConfig struct {
	// BaseURL is an afs-style URL the artifact store writes under,
	// e.g. file:///var/lib/privacy/exports or mem://exports.
	BaseURL string `mapstructure:"base_url"`
}

// NotificationConfig holds notification sender configuration
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

var globalConfig *Config

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default configuration lookup order:
		// 1. ./repository/conf/deployment.yaml (production - relative to binary)
		// 2. ./cmd/server/repository/conf/deployment.yaml (development)
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./repository/conf")
		v.AddConfigPath("./cmd/server/repository/conf")
		v.AddConfigPath("../repository/conf")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("PRIVACY_API")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("consent.default_expiry_months", 24)
	v.SetDefault("consent.expiry_windows", map[string]int{
		"MARKETING":       24,
		"ANALYTICS":       12,
		"DATA_PROCESSING": 36,
		"ESSENTIAL":       0,
	})
	v.SetDefault("export.rate_limit_window", 24*time.Hour)
	v.SetDefault("export.artifact_ttl_days", 30)
	v.SetDefault("export.processing_timeout", 15*time.Minute)
	v.SetDefault("deletion.token_ttl_days", 7)
	v.SetDefault("deletion.recovery_period_days", 30)
	v.SetDefault("deletion.schedule_delay_days", 1)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.sweep_interval", time.Hour)
	v.SetDefault("scheduler.retention_interval", 6*time.Hour)
	v.SetDefault("artifact.base_url", "file:///var/lib/privacy/exports")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Privacy.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}

	if config.Database.Privacy.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if config.Export.ArtifactTTLDays <= 0 {
		return fmt.Errorf("export artifact TTL must be positive")
	}

	if config.Deletion.TokenTTLDays <= 0 {
		return fmt.Errorf("deletion token TTL must be positive")
	}

	if config.Deletion.RecoveryPeriodDays <= 0 {
		return fmt.Errorf("deletion recovery period must be positive")
	}

	if config.Artifact.BaseURL == "" {
		return fmt.Errorf("artifact base URL is required")
	}

	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// SetGlobal sets the global configuration (for testing purposes)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// GetDSN returns the database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}
