package config

import (
	"fmt"
	"strings"
	"time"
)

// ConnectionConfig holds the pragmas applied when a connection is opened.
// These can be configured via CLI flags to tune behaviour for different environments.
type ConnectionConfig struct {
	// BusyTimeout is how long the engine waits on a locked database file
	// before failing the statement. Default: 5s
	BusyTimeout time.Duration

	// JournalMode is passed verbatim to PRAGMA journal_mode. Empty leaves the
	// engine default in place. Default: WAL
	JournalMode string

	// ForeignKeys enables PRAGMA foreign_keys. Default: true
	ForeignKeys bool
}

// DefaultConnectionConfig returns the default connection configuration
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
		ForeignKeys: true,
	}
}

// DSN renders the data source name for path with the configured pragmas.
func (c *ConnectionConfig) DSN(path string) string {
	if c == nil {
		c = DefaultConnectionConfig()
	}

	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", c.BusyTimeout.Milliseconds()),
	}
	if c.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=journal_mode(%s)", c.JournalMode))
	}
	if c.ForeignKeys {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}
