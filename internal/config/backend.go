package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Backend persists non-secret settings. Values are kept as decoded JSON
// (string, float64, bool); keySpec converts them to the key's type.
type Backend interface {
	Lookup(key string) (any, bool)
	Store(key string, val any) error
	Delete(key string) error
}

func defaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "mentortable")
}

// ConfigFilePath is where Load reads settings from.
func ConfigFilePath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "mentortable", "config.json")
}

// xdgDir returns $env, or the fallback under the home directory, or the
// working directory when neither is available.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// fileBackend is a flat JSON object on disk, e.g.
//
//	{"server.port": 4100, "storage.enabled": true}
type fileBackend struct {
	path   string
	values map[string]any
}

func newPlatformBackend() Backend {
	return openFileBackend(ConfigFilePath())
}

// openFileBackend reads path. A missing file is an empty config; an
// unreadable or malformed one is reported and treated as empty.
func openFileBackend(path string) *fileBackend {
	b := &fileBackend{path: path, values: map[string]any{}}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		fmt.Fprintf(os.Stderr, "[WARN] could not read config file %s: %v. Using default values.\n", path, err)
	default:
		if err := json.Unmarshal(data, &b.values); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse config file %s: %v. Using default values.\n", path, err)
			b.values = map[string]any{}
		}
	}
	return b
}

func (b *fileBackend) Lookup(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

func (b *fileBackend) Store(key string, val any) error {
	b.values[key] = val
	return b.flush()
}

func (b *fileBackend) Delete(key string) error {
	delete(b.values, key)
	return b.flush()
}

func (b *fileBackend) flush() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(b.values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, append(data, '\n'), 0o600)
}
