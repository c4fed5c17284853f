package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/saltyorg/litemapper/internal/config"
)

const driverName = "sqlite"

type state int

const (
	stateClosed state = iota
	stateOpen
)

func (s state) String() string {
	if s == stateOpen {
		return "open"
	}
	return "closed"
}

// DB owns a single lazily opened SQLite connection.
//
// Statements run inside an implicit transaction that is begun on demand and
// only made durable by Commit. DB carries no locking; callers sharing one
// across goroutines must serialise access themselves.
type DB struct {
	path  string
	cfg   *config.ConnectionConfig
	state state
	conn  *sql.DB
	tx    *sql.Tx

	// cursors still reading from tx
	cursors map[*Cursor]struct{}
}

// New records the database path and connection options. Nothing is opened
// until the connection is first needed.
func New(path string, cfg *config.ConnectionConfig) *DB {
	if cfg == nil {
		cfg = config.DefaultConnectionConfig()
	}
	return &DB{path: path, cfg: cfg}
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// IsOpen reports whether the physical connection is currently open.
func (db *DB) IsOpen() bool {
	return db.state == stateOpen
}

// Connection returns the open connection, opening it on first use.
func (db *DB) Connection() (*sql.DB, error) {
	if db.state == stateOpen {
		return db.conn, nil
	}

	conn, err := sql.Open(driverName, db.cfg.DSN(db.path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single physical connection: the pending transaction and in-memory
	// databases are bound to it.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.conn = conn
	db.state = stateOpen
	log.Debug().Str("path", db.path).Msg("Database connection established")

	return conn, nil
}

// pending returns the implicit transaction, beginning one if none is active.
func (db *DB) pending() (*sql.Tx, error) {
	if db.tx != nil {
		return db.tx, nil
	}

	conn, err := db.Connection()
	if err != nil {
		return nil, err
	}

	tx, err := conn.Begin()
	if err != nil {
		return nil, err
	}
	db.tx = tx
	return tx, nil
}

// Exec runs a statement that returns no rows.
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	tx, err := db.pending()
	if err != nil {
		return nil, err
	}
	return tx.Exec(query, args...)
}

// Query runs a statement and returns a cursor over its rows.
func (db *DB) Query(query string, args ...any) (*Cursor, error) {
	tx, err := db.pending()
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	cur, err := newCursor(db, rows)
	if err != nil {
		return nil, err
	}
	if db.cursors == nil {
		db.cursors = make(map[*Cursor]struct{})
	}
	db.cursors[cur] = struct{}{}
	return cur, nil
}

// detachCursors buffers the unread rows of every live cursor so they stay
// readable once the transaction they were opened in has ended.
func (db *DB) detachCursors() {
	for cur := range db.cursors {
		cur.detach()
	}
	clear(db.cursors)
}

// Commit makes pending writes durable. It is a no-op when nothing is pending.
func (db *DB) Commit() error {
	if db.tx == nil {
		return nil
	}

	db.detachCursors()
	tx := db.tx
	db.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExecScript commits pending work, runs script as one multi-statement
// batch and commits again. Atomicity across the statements is whatever the
// engine provides for a single transaction.
func (db *DB) ExecScript(script string) error {
	if err := db.Commit(); err != nil {
		return err
	}

	return db.transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(script)
		return err
	})
}

// transaction wraps fn in its own transaction. It must not be called while
// an implicit transaction is pending.
func (db *DB) transaction(fn func(*sql.Tx) error) error {
	conn, err := db.Connection()
	if err != nil {
		return err
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close discards uncommitted writes and closes the connection. Closing a
// closed DB does nothing; the next statement reopens it.
func (db *DB) Close() error {
	if db.state == stateClosed {
		return nil
	}

	var errs []error
	if db.tx != nil {
		log.Warn().Str("path", db.path).Msg("Closing database with uncommitted changes")
		if err := db.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		db.tx = nil
	}
	clear(db.cursors)

	if err := db.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	db.conn = nil
	db.state = stateClosed
	log.Debug().Str("path", db.path).Msg("Database connection closed")

	return errors.Join(errs...)
}
