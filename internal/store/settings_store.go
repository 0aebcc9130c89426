package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/amterp/crack/internal/config"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/util"
	"github.com/amterp/crack/internal/version"
)

// FileSettingsStore implements SettingsStore using settings.toml.
type FileSettingsStore struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewSettingsStore creates a new settings store.
func NewSettingsStore(paths *config.Paths, logger *slog.Logger) *FileSettingsStore {
	return &FileSettingsStore{paths: paths, logger: orDiscard(logger)}
}

// Load reads settings with defaults applied. A missing file yields defaults;
// a malformed one is preserved aside and also yields defaults.
func (s *FileSettingsStore) Load() (*model.Settings, error) {
	settings, err := s.read()
	if err == nil {
		return settings, nil
	}
	if os.IsNotExist(err) {
		return model.DefaultSettings(), nil
	}
	if cerr, ok := err.(*CorruptError); ok {
		recoverCorrupt(s.logger, "settings", cerr)
		return model.DefaultSettings(), nil
	}
	return nil, err
}

func (s *FileSettingsStore) read() (*model.Settings, error) {
	path := s.paths.SettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSettings(path, data)
}

// ParseSettings decodes settings.toml content, checks its schema and applies
// defaults. path is only used in errors.
func ParseSettings(path string, data []byte) (*model.Settings, error) {
	var settings model.Settings
	if _, err := toml.Decode(string(data), &settings); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if settings.CrackSchema != version.CurrentSettingsSchema() {
		return nil, &CorruptError{Path: path, Err: version.InvalidSettingsSchema(path, settings.CrackSchema)}
	}
	settings.ApplyDefaults()
	return &settings, nil
}

// Save writes settings, stamping the current schema.
func (s *FileSettingsStore) Save(settings *model.Settings) error {
	settings.CrackSchema = version.CurrentSettingsSchema()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return util.WriteFileAtomic(s.paths.SettingsPath(), buf.Bytes(), 0644)
}

// Exists reports whether settings.toml exists, which marks an initialized data dir.
func (s *FileSettingsStore) Exists() bool {
	_, err := os.Stat(s.paths.SettingsPath())
	return err == nil
}

// Check reports whether the file on disk is readable without resetting it.
// A missing file is fine.
func (s *FileSettingsStore) Check() error {
	_, err := s.read()
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
