package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"drone-vision/internal/domain"
)

// Store defines persistence operations for app settings.
type Store interface {
	Load() domain.Settings
	Save(domain.Settings) (domain.Settings, error)
}

// JSONStore persists settings in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed settings store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads settings from disk. Missing or corrupt data degrades to the
// documented defaults; Load never fails.
func (s *JSONStore) Load() domain.Settings {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return DefaultSettings()
	}

	var cfg domain.Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultSettings()
	}

	return Normalize(cfg)
}

// Save normalizes and writes settings as indented JSON, creating parent
// directories. The persisted (normalized) value is returned to the caller.
func (s *JSONStore) Save(cfg domain.Settings) (domain.Settings, error) {
	normalized := Normalize(cfg)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.Settings{}, err
	}

	data, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return domain.Settings{}, err
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return domain.Settings{}, err
	}

	return normalized, nil
}
