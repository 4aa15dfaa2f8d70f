package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/billed/pkg/utils"
)

// Store drivers
const (
	DriverREST   = "rest"
	DriverSQLite = "sqlite"
	DriverNone   = "none"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Session  SessionConfig  `mapstructure:"session"`
	Format   FormatConfig   `mapstructure:"format"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// DraftIdleTimeout evicts abandoned new bill drafts
	DraftIdleTimeout time.Duration `mapstructure:"draft_idle_timeout" validate:"min=0"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects the bill store backend
type StoreConfig struct {
	Driver  string        `mapstructure:"driver" validate:"oneof=rest sqlite none"`
	BaseURL string        `mapstructure:"base_url" validate:"required_if=Driver rest"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds the embedded sqlite store configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig holds where the embedded store keeps receipts
type StorageConfig struct {
	ReceiptsDir   string `mapstructure:"receipts_dir"`
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
}

// SessionConfig tells where the signed-in user comes from
type SessionConfig struct {
	Path  string `mapstructure:"path"`
	Email string `mapstructure:"email" validate:"omitempty,email"`
}

// FormatConfig holds display formatting options
type FormatConfig struct {
	Locale string `mapstructure:"locale" validate:"oneof=fr en"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
}

// Load loads configuration from an optional yaml file, a .env file and the environment.
// An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5678)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.draft_idle_timeout", 30*time.Minute)

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.timeout", 15*time.Second)

	v.SetDefault("database.path", "data/billed.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("storage.receipts_dir", "data/receipts")

	v.SetDefault("session.path", "data/user.json")

	v.SetDefault("format.locale", "fr")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("store.driver", "BILLED_STORE_DRIVER")
	_ = v.BindEnv("store.base_url", "BILLED_STORE_URL")
	_ = v.BindEnv("store.token", "BILLED_STORE_TOKEN")
	_ = v.BindEnv("session.email", "BILLED_EMAIL")
	_ = v.BindEnv("server.port", "BILLED_PORT")
	_ = v.BindEnv("format.locale", "BILLED_LOCALE")
	_ = v.BindEnv("logger.level", "BILLED_LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}

	if c.Store.Driver == DriverSQLite {
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite store")
		}
		if c.Storage.ReceiptsDir == "" {
			return fmt.Errorf("storage.receipts_dir is required for the sqlite store")
		}
	}
	if c.Session.Path == "" && c.Session.Email == "" {
		return fmt.Errorf("session.path or session.email is required")
	}
	return nil
}
