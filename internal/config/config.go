package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kalambet/mentortable/internal/history"
	"github.com/kalambet/mentortable/internal/table"
)

type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	History HistoryConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port             int
	RequestTimeoutMS int
	APIToken         string
}

type LLMConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	TimeoutMS   int
	Temperature float64
}

type HistoryConfig struct {
	MaxItems          int
	MaxChars          int
	TokenThreshold    int
	CompressTimeoutMS int
}

type StorageConfig struct {
	DataDir string
	Enabled bool
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:             4100,
			RequestTimeoutMS: 90000,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com/v1",
			TimeoutMS:   45000,
			Temperature: 0.7,
		},
		History: HistoryConfig{
			MaxItems:          24,
			MaxChars:          12000,
			TokenThreshold:    6000,
			CompressTimeoutMS: 15000,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/mentortable/config.json, then applies MENTORTABLE_*
// environment variables. A .env file in the working directory is loaded
// into the environment first without overriding variables already set.
//
// A missing LLM API key is not an error here; consultations report it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}
	return loadWith(newPlatformBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.LLM.BaseURL == "" {
		return errors.New("llm.base_url must not be empty")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	return nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// RequestTimeout bounds one inbound consultation.
func (c Config) RequestTimeout() time.Duration { return ms(c.Server.RequestTimeoutMS) }

// SlogLevel maps log.level onto slog.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// TableOptions converts the LLM and history settings into service options.
func (c Config) TableOptions() table.Options {
	return table.Options{
		APIKey:      c.LLM.APIKey,
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		Timeout:     ms(c.LLM.TimeoutMS),
		History: history.Options{
			MaxItems:        c.History.MaxItems,
			MaxChars:        c.History.MaxChars,
			TokenThreshold:  c.History.TokenThreshold,
			CompressTimeout: ms(c.History.CompressTimeoutMS),
			Model:           c.LLM.Model,
		},
	}
}
