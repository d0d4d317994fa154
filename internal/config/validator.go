package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateStore(&cfg.Store)
	v.validateServer(&cfg.Server)
	v.validateMap(&cfg.Map)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	if !oneOf(cfg.Level, "debug", "info", "warn", "error") {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}
	if !oneOf(cfg.Format, "auto", "text", "json") {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateStore(cfg *StoreConfig) {
	backend := strings.ToLower(cfg.Backend)
	if !oneOf(backend, "memory", "file", "sqlite", "redis") {
		v.addError("store.backend", cfg.Backend, "must be one of: memory, file, sqlite, redis")
	}
	if (backend == "file" || backend == "sqlite") && strings.TrimSpace(cfg.Path) == "" {
		v.addError("store.path", cfg.Path, "required for the file and sqlite backends")
	}
	if strings.TrimSpace(cfg.Key) == "" || strings.ContainsAny(cfg.Key, `/\`) {
		v.addError("store.key", cfg.Key, "must be a non-empty name without path separators")
	}

	if backend == "redis" {
		if cfg.Redis.Addr == "" {
			v.addError("store.redis.addr", cfg.Redis.Addr, "required for the redis backend")
		}
		if cfg.Redis.DB < 0 {
			v.addError("store.redis.db", cfg.Redis.DB, "must be non-negative")
		}
	}

	if cfg.Retry.MaxAttempts < 1 {
		v.addError("store.retry.max_attempts", cfg.Retry.MaxAttempts, "must be at least 1")
	}
	base := v.validateDuration("store.retry.base_delay", cfg.Retry.BaseDelay)
	maxDelay := v.validateDuration("store.retry.max_delay", cfg.Retry.MaxDelay)
	if base > 0 && maxDelay > 0 && maxDelay < base {
		v.addError("store.retry.max_delay", cfg.Retry.MaxDelay, "must be >= store.retry.base_delay")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		v.addError("server.host", cfg.Host, "required")
	}
}

func (v *Validator) validateMap(cfg *MapConfig) {
	if cfg.Zoom < 0 || cfg.Zoom > 20 {
		v.addError("map.zoom", cfg.Zoom, "must be between 0 and 20")
	}
}

// validateDuration returns the parsed duration, or zero after recording an error.
func (v *Validator) validateDuration(field, value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		v.addError(field, value, "invalid duration format")
		return 0
	}
	if d < 0 {
		v.addError(field, value, "must be non-negative")
		return 0
	}
	return d
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// ValidateConfig validates cfg and returns every problem found.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
