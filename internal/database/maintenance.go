package database

import "fmt"

// TableExists checks the system catalog for a table called name.
func (db *DB) TableExists(name string) (bool, error) {
	cur, err := db.Query("SELECT name FROM sqlite_master WHERE type = ? AND name = ?", "table", name)
	if err != nil {
		return false, err
	}
	row, err := cur.FetchOne()
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// Tables lists user tables in name order.
func (db *DB) Tables() ([]string, error) {
	cur, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	rows, err := cur.FetchAll()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Optimize commits pending work and runs SQLite's PRAGMA optimize to refresh planner stats.
func (db *DB) Optimize() error {
	return db.outsideTransaction("PRAGMA optimize", "optimize")
}

// Vacuum commits pending work and rebuilds the database file to reclaim unused space.
func (db *DB) Vacuum() error {
	return db.outsideTransaction("VACUUM", "vacuum")
}

func (db *DB) outsideTransaction(stmt, what string) error {
	if err := db.Commit(); err != nil {
		return err
	}

	conn, err := db.Connection()
	if err != nil {
		return err
	}

	if _, err := conn.Exec(stmt); err != nil {
		return fmt.Errorf("failed to %s database: %w", what, err)
	}

	return nil
}
