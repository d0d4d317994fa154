package config

import "time"

// Config holds all application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Server ServerConfig `mapstructure:"server"`
	Map    MapConfig    `mapstructure:"map"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Path    string      `mapstructure:"path"`
	Key     string      `mapstructure:"key"`
	Redis   RedisConfig `mapstructure:"redis"`
	Retry   RetryConfig `mapstructure:"retry"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// RetryConfig bounds retries of key-value calls.
type RetryConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	BaseDelay   string `mapstructure:"base_delay"`
	MaxDelay    string `mapstructure:"max_delay"`
}

// BaseDelayDuration parses BaseDelay. Invalid values are caught by the validator.
func (r RetryConfig) BaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(r.BaseDelay)
	return d
}

// MaxDelayDuration parses MaxDelay.
func (r RetryConfig) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(r.MaxDelay)
	return d
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// MapConfig configures the map boundary.
type MapConfig struct {
	Zoom int `mapstructure:"zoom"`
}
