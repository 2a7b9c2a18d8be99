package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
)

// keySpec binds a dotted config key and its environment variable to a
// Config field. field returns a pointer to the field, which also fixes the
// key's type.
type keySpec struct {
	key    string
	env    string
	secret bool
	field  func(*Config) any
}

var specs = []keySpec{
	{key: "server.port", env: "MENTORTABLE_SERVER_PORT", field: func(c *Config) any { return &c.Server.Port }},
	{key: "server.request_timeout_ms", env: "MENTORTABLE_SERVER_REQUEST_TIMEOUT_MS", field: func(c *Config) any { return &c.Server.RequestTimeoutMS }},
	{key: "server.api_token", env: "MENTORTABLE_API_TOKEN", secret: true, field: func(c *Config) any { return &c.Server.APIToken }},
	{key: "llm.api_key", env: "MENTORTABLE_LLM_API_KEY", secret: true, field: func(c *Config) any { return &c.LLM.APIKey }},
	{key: "llm.model", env: "MENTORTABLE_LLM_MODEL", field: func(c *Config) any { return &c.LLM.Model }},
	{key: "llm.base_url", env: "MENTORTABLE_LLM_BASE_URL", field: func(c *Config) any { return &c.LLM.BaseURL }},
	{key: "llm.timeout_ms", env: "MENTORTABLE_LLM_TIMEOUT_MS", field: func(c *Config) any { return &c.LLM.TimeoutMS }},
	{key: "llm.temperature", env: "MENTORTABLE_LLM_TEMPERATURE", field: func(c *Config) any { return &c.LLM.Temperature }},
	{key: "history.max_items", env: "MENTORTABLE_HISTORY_MAX_ITEMS", field: func(c *Config) any { return &c.History.MaxItems }},
	{key: "history.max_chars", env: "MENTORTABLE_HISTORY_MAX_CHARS", field: func(c *Config) any { return &c.History.MaxChars }},
	{key: "history.token_threshold", env: "MENTORTABLE_HISTORY_TOKEN_THRESHOLD", field: func(c *Config) any { return &c.History.TokenThreshold }},
	{key: "history.compress_timeout_ms", env: "MENTORTABLE_HISTORY_COMPRESS_TIMEOUT_MS", field: func(c *Config) any { return &c.History.CompressTimeoutMS }},
	{key: "storage.data_dir", env: "MENTORTABLE_STORAGE_DATA_DIR", field: func(c *Config) any { return &c.Storage.DataDir }},
	{key: "storage.enabled", env: "MENTORTABLE_STORAGE_ENABLED", field: func(c *Config) any { return &c.Storage.Enabled }},
	{key: "log.level", env: "MENTORTABLE_LOG_LEVEL", field: func(c *Config) any { return &c.Log.Level }},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

func (s keySpec) zero() any {
	var c Config
	return s.field(&c)
}

func (s keySpec) get(cfg Config) any {
	switch p := s.field(&cfg).(type) {
	case *string:
		return *p
	case *int:
		return *p
	case *bool:
		return *p
	case *float64:
		return *p
	}
	return nil
}

// set assigns v, which must already have the field's type.
func (s keySpec) set(cfg *Config, v any) {
	switch p := s.field(cfg).(type) {
	case *string:
		*p = v.(string)
	case *int:
		*p = v.(int)
	case *bool:
		*p = v.(bool)
	case *float64:
		*p = v.(float64)
	}
}

// parseText converts environment or command-line text to the field's type.
func (s keySpec) parseText(raw string) (any, error) {
	switch s.zero().(type) {
	case *int:
		n, err := strconv.Atoi(raw)
		return n, err
	case *bool:
		b, err := strconv.ParseBool(raw)
		return b, err
	case *float64:
		f, err := strconv.ParseFloat(raw, 64)
		return f, err
	}
	return raw, nil
}

// parseFile converts a decoded JSON value to the field's type. Quoted
// values are accepted for every type.
func (s keySpec) parseFile(v any) (any, error) {
	if str, ok := v.(string); ok {
		return s.parseText(str)
	}
	switch s.zero().(type) {
	case *string:
		return fmt.Sprint(v), nil
	case *int:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) || f < math.MinInt || f > math.MaxInt {
			return nil, fmt.Errorf("expected an integer, got %v", v)
		}
		return int(f), nil
	case *bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %v", v)
		}
		return b, nil
	case *float64:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %v", v)
		}
		return f, nil
	}
	return nil, fmt.Errorf("unsupported value %v", v)
}

// applyBackend copies non-secret keys present in b into cfg.
func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		raw, ok := b.Lookup(s.key)
		if !ok {
			continue
		}
		v, err := s.parseFile(raw)
		if err != nil {
			return fmt.Errorf("config key %s: %w", s.key, err)
		}
		s.set(cfg, v)
	}
	return nil
}

// applyEnvOverrides copies set environment variables into cfg. Values that
// do not parse are ignored with a warning.
func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parseText(raw)
		if err != nil {
			slog.Warn("ignoring invalid environment value", "env", s.env, "value", raw, "error", err)
			continue
		}
		s.set(cfg, v)
	}
}
