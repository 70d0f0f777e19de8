// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Draws     DrawsConfig     `mapstructure:"draws"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Hierarchy HierarchyConfig `mapstructure:"hierarchy"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DrawsConfig holds draw calendar configuration. Timezone decides which
// calendar day a wall-clock instant belongs to for settlement dates.
type DrawsConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// CacheConfig holds TTLs and the size bound for the in-memory caches.
type CacheConfig struct {
	RateTTL    time.Duration `mapstructure:"rate_ttl"`
	ReportTTL  time.Duration `mapstructure:"report_ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// HierarchyConfig holds the agent tree refresh cadence.
type HierarchyConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// Addr returns the listen address of the HTTP server.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Location resolves the configured timezone, falling back to UTC.
func (d *DrawsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. SERVER_PORT, DATABASE_HOST.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "lotto")
	v.SetDefault("database.name", "lotto")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Sales network runs on Indian local time.
	v.SetDefault("draws.timezone", "Asia/Kolkata")

	v.SetDefault("cache.rate_ttl", "10m")
	v.SetDefault("cache.report_ttl", "60s")
	v.SetDefault("cache.max_entries", 1024)

	v.SetDefault("hierarchy.refresh_interval", "5m")
}
