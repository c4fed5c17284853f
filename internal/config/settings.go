package config

import "strconv"

// SettingsGetter is an interface for retrieving settings from storage
type SettingsGetter interface {
	GetSetting(key string) (string, error)
}

// Loader provides typed access to persisted settings with default values.
// A nil getter makes every lookup fall back to its default.
type Loader struct {
	store SettingsGetter
}

// NewLoader creates a new settings loader
func NewLoader(store SettingsGetter) *Loader {
	return &Loader{store: store}
}

func (l *Loader) lookup(key string) string {
	if l == nil || l.store == nil {
		return ""
	}
	val, _ := l.store.GetSetting(key)
	return val
}

// Int retrieves an integer setting, returning defaultVal if not found or invalid
func (l *Loader) Int(key string, defaultVal int) int {
	if val := l.lookup(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Bool retrieves a boolean setting, returning defaultVal if not found.
// Only "true" and "false" are recognised.
func (l *Loader) Bool(key string, defaultVal bool) bool {
	switch l.lookup(key) {
	case "true":
		return true
	case "false":
		return false
	}
	return defaultVal
}

// String retrieves a string setting, returning defaultVal if not found or empty
func (l *Loader) String(key, defaultVal string) string {
	if val := l.lookup(key); val != "" {
		return val
	}
	return defaultVal
}
