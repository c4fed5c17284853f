// Package settings keeps key/value configuration in the database itself,
// stored as ordinary Setting rows through the mapper.
package settings

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/saltyorg/litemapper/internal/database"
	"github.com/saltyorg/litemapper/internal/logging"
	"github.com/saltyorg/litemapper/internal/orm"
	"github.com/saltyorg/litemapper/internal/schema"
)

// Setting is one stored key/value pair.
type Setting struct {
	orm.Identity
	Key   string
	Value string
}

func (s *Setting) Values() orm.Values {
	return orm.Values{"key": s.Key, "value": s.Value}
}

// Settings is the registered kind backing the store.
var Settings = orm.Register(
	schema.New("Setting",
		schema.Field{Name: "key", Type: schema.Text},
		schema.Field{Name: "value", Type: schema.Text},
	),
	func(_ []schema.Field, v orm.Values) (*Setting, error) {
		key, ok := v.Text("key")
		if !ok {
			return nil, errors.New("setting row without key")
		}
		value, _ := v.Text("value")
		return &Setting{Key: key, Value: value}, nil
	},
)

// Default settings
var DefaultSettings = map[string]string{
	"log.level":        "info",
	"log.max_size_mb":  strconv.Itoa(logging.DefaultMaxSizeMB),
	"log.max_backups":  strconv.Itoa(logging.DefaultMaxBackups),
	"log.max_age_days": strconv.Itoa(logging.DefaultMaxAgeDays),
	"log.compress":     strconv.FormatBool(logging.DefaultCompress),
}

// Store reads and writes settings. Writes are not committed; the owner of
// the connection decides when to commit.
//
// Reads never create the Setting table; only SetSetting and
// InitializeDefaults do.
type Store struct {
	db   *database.DB
	kind *orm.Kind[*Setting]
}

// NewStore creates a settings store over db.
func NewStore(db *database.DB) *Store {
	return &Store{db: db, kind: Settings.With(db)}
}

func (s *Store) initialized() (bool, error) {
	return s.db.TableExists(Settings.Table().Name)
}

func (s *Store) find(key string) (*Setting, error) {
	for setting, err := range s.kind.All() {
		if err != nil {
			return nil, err
		}
		if setting.Key == key {
			return setting, nil
		}
	}
	return nil, nil
}

// GetSetting retrieves a setting value by key, "" when unset.
func (s *Store) GetSetting(key string) (string, error) {
	ok, err := s.initialized()
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}

	setting, err := s.find(key)
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if setting == nil {
		return "", nil
	}
	return setting.Value, nil
}

// SetSetting stores a setting value
func (s *Store) SetSetting(key, value string) error {
	setting, err := s.find(key)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	if setting == nil {
		_, err = s.kind.Save(&Setting{Key: key, Value: value})
	} else {
		setting.Value = value
		err = s.kind.Update(setting)
	}
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a setting
func (s *Store) DeleteSetting(key string) error {
	ok, err := s.initialized()
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	if !ok {
		return nil
	}

	setting, err := s.find(key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	if setting == nil {
		return nil
	}
	if err := s.kind.Delete(setting); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// GetAllSettings retrieves all settings
func (s *Store) GetAllSettings() (map[string]string, error) {
	out := make(map[string]string)
	ok, err := s.initialized()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if !ok {
		return out, nil
	}

	for setting, err := range s.kind.All() {
		if err != nil {
			return nil, fmt.Errorf("failed to get settings: %w", err)
		}
		out[setting.Key] = setting.Value
	}
	return out, nil
}

// InitializeDefaults sets default values for settings that don't exist
func (s *Store) InitializeDefaults() error {
	existing, err := s.GetAllSettings()
	if err != nil {
		return err
	}
	for key, value := range DefaultSettings {
		if _, ok := existing[key]; ok {
			continue
		}
		if err := s.SetSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}
