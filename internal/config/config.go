package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string

	DBDialect  string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret   string
	CORSOrigins []string

	ExportDir string
	Timezone  string
	LogLevel  string
}

// Load reads configuration from the environment. When HOURESTIMATOR_CONFIG
// names a file, its values are used for keys not set in the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_DIALECT", "postgres")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "hourestimator.db")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("EXPORT_DIR", ".")
	v.SetDefault("TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()

	if path := os.Getenv("HOURESTIMATOR_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return &Config{
		HTTPAddr: v.GetString("HTTP_ADDR"),

		DBDialect:  v.GetString("DB_DIALECT"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetInt("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		JWTSecret:   v.GetString("JWT_SECRET"),
		CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		ExportDir: v.GetString("EXPORT_DIR"),
		Timezone:  v.GetString("TIMEZONE"),
		LogLevel:  v.GetString("LOG_LEVEL"),
	}, nil
}

// ConnString builds the lib/pq connection string.
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// DSN returns the data source name for the configured dialect.
func (c *Config) DSN() string {
	switch strings.ToLower(c.DBDialect) {
	case "sqlite", "sqlite3":
		return c.SQLitePath
	default:
		return c.ConnString()
	}
}

// Location resolves Timezone, falling back to the host zone when empty.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
