package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	SQLite SQLiteConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Log    LogConfig
}

type AppConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type SQLiteConfig struct {
	// Path is a local file path or a libsql:// URL.
	Path string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

// Enabled reports whether a Redis cache should be used.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type AuthConfig struct {
	APIKeys map[string]string // API key -> name/description
}

type LogConfig struct {
	Level       string
	Development bool
}

// Load reads configuration from ./.env (when present) and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile reads configuration from the given dotenv file; environment
// variables take precedence over values in the file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_SHUTDOWN_TIMEOUT", 5*time.Second)
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("SQLITE_PATH", "data/urls.db")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("CACHE_TTL", 24*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.ShutdownTimeout = v.GetDuration("APP_SHUTDOWN_TIMEOUT")

	cfg.DB.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.SQLite.Path = v.GetString("SQLITE_PATH")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.TTL = v.GetDuration("CACHE_TTL")

	// Format: key1:name1,key2:name2
	cfg.Auth.APIKeys = parseAPIKeys(v.GetString("API_KEYS"))

	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Development = v.GetBool("LOG_DEVELOPMENT")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("SQLITE_PATH cannot be empty")
		}
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.Name == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}

	if c.App.Port == "" {
		return errors.New("APP_PORT cannot be empty")
	}
	if c.App.ShutdownTimeout <= 0 {
		return errors.New("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// parseAPIKeys parses comma-separated API keys in format "key1:name1,key2:name2"
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}

	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 {
			keys[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return keys
}
