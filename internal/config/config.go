package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

type Config struct {
	App      AppConfig      `koanf:"app"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Auth     AuthConfig     `koanf:"auth"`
	Email    EmailConfig    `koanf:"email"`
	OpenAI   OpenAIConfig   `koanf:"openai"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type AppConfig struct {
	// Timezone decides where calendar days start for due dates and sessions.
	Timezone string `koanf:"timezone"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	GinMode         string        `koanf:"gin_mode"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is one of mysql, postgres, sqlite or mongo.
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	// Path is the SQLite file (":memory:" for an ephemeral database).
	Path string `koanf:"path"`
	// MongoURI is used only with the mongo driver.
	MongoURI string `koanf:"mongo_uri"`
}

type RedisConfig struct {
	Host      string `koanf:"host"`
	Port      string `koanf:"port"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	MaxIdle   int    `koanf:"max_idle"`
	MaxActive int    `koanf:"max_active"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type EmailConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	From         string `koanf:"from"`
}

type OpenAIConfig struct {
	APIKey string `koanf:"api_key"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Timezone: "UTC",
		},
		Server: ServerConfig{
			Port:            "8080",
			GinMode:         "debug",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     "3306",
			User:     "taskuser",
			Password: "taskpassword",
			Name:     "taskwave",
			Path:     "taskwave.db",
			MongoURI: "mongodb://localhost:27017",
		},
		Redis: RedisConfig{
			Host:      "localhost",
			Port:      "6379",
			MaxIdle:   10,
			MaxActive: 50,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envMappings maps flat environment variable names to config paths.
var envMappings = map[string]string{
	"port":             "server.port",
	"gin_mode":         "server.gin_mode",
	"cors_origins":     "server.cors_origins",
	"shutdown_timeout": "server.shutdown_timeout",
	"timezone":         "app.timezone",
	"db_driver":        "database.driver",
	"db_host":          "database.host",
	"db_port":          "database.port",
	"db_user":          "database.user",
	"db_password":      "database.password",
	"db_name":          "database.name",
	"db_path":          "database.path",
	"database_url":     "database.mongo_uri",
	"mongodb_uri":      "database.mongo_uri",
	"redis_host":       "redis.host",
	"redis_port":       "redis.port",
	"redis_password":   "redis.password",
	"redis_db":         "redis.db",
	"jwt_secret":       "auth.jwt_secret",
	"jwt_secret_key":   "auth.jwt_secret",
	"token_ttl":        "auth.token_ttl",
	"resend_api_key":   "email.resend_api_key",
	"email":            "email.from",
	"email_from":       "email.from",
	"openai_api_key":   "openai.api_key",
	"log_level":        "logging.level",
	"log_format":       "logging.format",
}

// Load reads defaults, then an optional YAML file, then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if origins, ok := k.Get("server.cors_origins").(string); ok {
		if err := k.Set("server.cors_origins", splitList(origins)); err != nil {
			return nil, fmt.Errorf("failed to set cors origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransformFunc returns "" for variables that are not part of the config,
// which makes koanf skip them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite", "mongo":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}

	if c.Auth.JWTSecret == "" {
		if c.Server.GinMode == "release" {
			return errors.New("JWT_SECRET is required in release mode")
		}
		c.Auth.JWTSecret = "default-secret-key-change-me"
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}

	return nil
}

// Location returns the configured calendar time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RedisAddr returns host:port for the redis pool.
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}
