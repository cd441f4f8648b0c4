package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/localrivet/restlauncher/pkg/dsn"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Tool       string           `yaml:"tool"`
	Args       string           `yaml:"args"`
	Supervise  bool             `yaml:"supervise"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Log        LogConfig        `yaml:"log"`
}

// DatabaseConfig holds the connection parameters handed to the external
// tool. All fields are opaque strings: they get no defaults, no validation,
// and no parsing (Port included) — anything wrong is surfaced by the tool
// itself when it tries to connect.
type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Driver   string `yaml:"driver"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
}

type MonitoringConfig struct {
	HealthPort  int `yaml:"health_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type LogConfig struct {
	Format string `yaml:"format"` // json or text
	Level  string `yaml:"level"`  // debug, info, warn, error
}

// Load builds the configuration: launcher defaults, then the optional YAML
// file, then the environment. The database parameters come from the bare
// variable names the deployment contract fixes (DB_TYPE, DB_DRIVER,
// USERNAME, PASSWORD, DB_HOST, DB_PORT, DATABASE, ARGS); launcher-owned
// settings use the RESTLAUNCHER_ prefix.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Tool: "sandman2ctl",
		Monitoring: MonitoringConfig{
			HealthPort:  8080,
			MetricsPort: 9090,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}

	// An env file feeds the same overlay as the real environment, so it
	// must be loaded before anything reads os.Getenv. godotenv never
	// overrides variables that are already set.
	if envFile := os.Getenv("RESTLAUNCHER_ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, err
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("DB_TYPE"); v != "" {
		c.Database.Type = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("USERNAME"); v != "" {
		c.Database.Username = v
	}
	if v := os.Getenv("PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		c.Database.Port = v
	}
	if v := os.Getenv("DATABASE"); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv("ARGS"); v != "" {
		c.Args = v
	}

	if v := os.Getenv("RESTLAUNCHER_TOOL"); v != "" {
		c.Tool = v
	}
	if v := os.Getenv("RESTLAUNCHER_SUPERVISE"); v != "" {
		c.Supervise = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("RESTLAUNCHER_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Monitoring.HealthPort = port
		}
	}
	if v := os.Getenv("RESTLAUNCHER_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Monitoring.MetricsPort = port
		}
	}
	if v := os.Getenv("RESTLAUNCHER_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("RESTLAUNCHER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// validate covers launcher-owned settings only. The database parameters are
// deliberately unchecked.
func (c *Config) validate() error {
	if c.Tool == "" {
		return fmt.Errorf("tool name must not be empty")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn, or error")
	}

	if c.Supervise {
		if c.Monitoring.HealthPort <= 0 || c.Monitoring.HealthPort > 65535 {
			return fmt.Errorf("health port out of range: %d", c.Monitoring.HealthPort)
		}
		if c.Monitoring.MetricsPort <= 0 || c.Monitoring.MetricsPort > 65535 {
			return fmt.Errorf("metrics port out of range: %d", c.Monitoring.MetricsPort)
		}
	}

	return nil
}

// Params returns the database parameters in the form the URI builder takes.
func (c *Config) Params() dsn.Params {
	return dsn.Params{
		Engine:   c.Database.Type,
		Driver:   c.Database.Driver,
		Username: c.Database.Username,
		Password: c.Database.Password,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Database: c.Database.Name,
	}
}

// LogLevel maps the configured level string onto slog's levels.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
