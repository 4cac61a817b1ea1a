package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port            string
		Mode            string        // gin mode: debug, release or test
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	}
	Database struct {
		Driver   string // "sqlite" or "postgres"
		DSN      string // "memory", a sqlite file path, or a postgres DSN
		LogLevel string `mapstructure:"log_level"` // silent, error, warn, info
	}
	Log struct {
		Mode string // development or production
	}
	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	}
	Metrics struct {
		Enabled bool
	}
}

// AppConfig is the global configuration instance.
var AppConfig Config

// LoadConfig loads configuration from .env, config.yaml and SOPDESK_* environment variables.
func LoadConfig() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.AddConfigPath("../config") // For running from locations like tests

	v.SetEnvPrefix("SOPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading configuration file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	// Env values for list keys arrive as a single comma-separated string.
	cfg.CORS.AllowOrigins = splitList(strings.Join(cfg.CORS.AllowOrigins, ","))
	if err := cfg.validate(); err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "memory")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("log.mode", "development")
	v.SetDefault("cors.allow_origins", []string{"*"})
	v.SetDefault("metrics.enabled", true)
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && (c.Database.DSN == "" || c.Database.DSN == "memory") {
		return errors.New("database.dsn is required for the postgres driver")
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
