// Package config loads server settings. Later sources win:
// built-in defaults, an optional YAML file (--config or CONFIG_FILE),
// the process environment (a .env file fills variables that are not
// already set), and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"

	minSecretLength = 32
)

type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	DBDriver       string        `yaml:"db_driver"`
	DBPath         string        `yaml:"db_path"`
	DatabaseURL    string        `yaml:"database_url"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
}

func Default() *Config {
	return &Config{
		Host:      "0.0.0.0",
		Port:      8080,
		DBPath:    "./data/tasks.db",
		TokenTTL:  24 * time.Hour,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from all sources and validates it.
// args excludes the program name.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("taskapi", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to a YAML config file")
	envFile := flags.String("env-file", ".env", "path to a dotenv file (ignored if missing)")
	host := flags.String("host", "", "listen host")
	port := flags.Int("port", 0, "listen port")
	dbDriver := flags.String("db-driver", "", "database driver: sqlite3 or postgres")
	dbPath := flags.String("db-path", "", "sqlite database file")
	databaseURL := flags.String("database-url", "", "postgres connection string")
	tokenTTL := flags.Duration("token-ttl", 0, "session token lifetime")
	logLevel := flags.String("log-level", "", "debug, info, warn or error")
	logFormat := flags.String("log-format", "", "text or json")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := Default()

	path := *configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if flags.Changed("host") {
		cfg.Host = *host
	}
	if flags.Changed("port") {
		cfg.Port = *port
	}
	if flags.Changed("db-driver") {
		cfg.DBDriver = *dbDriver
	}
	if flags.Changed("db-path") {
		cfg.DBPath = *dbPath
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = *databaseURL
	}
	if flags.Changed("token-ttl") {
		cfg.TokenTTL = *tokenTTL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = *logFormat
	}

	if cfg.DBDriver == "" {
		cfg.DBDriver = driverSQLite
		if cfg.DatabaseURL != "" {
			cfg.DBDriver = driverPostgres
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("HOST", &c.Host)
	setString("DB_DRIVER", &c.DBDriver)
	setString("DB_PATH", &c.DBPath)
	setString("DATABASE_URL", &c.DatabaseURL)
	setString("JWT_SECRET", &c.JWTSecret)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_FORMAT", &c.LogFormat)

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		c.TokenTTL = ttl
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	return nil
}

func (c *Config) Validate() error {
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	switch c.DBDriver {
	case driverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH must be set for sqlite3")
		}
	case driverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Logger returns a slog logger writing to w in the configured format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
