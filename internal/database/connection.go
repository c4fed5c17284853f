package database

import "database/sql"

// Row is a result row keyed by column name.
type Row map[string]any

// Cursor iterates the rows of a query, materialising each one as a Row.
//
// When the transaction a cursor was opened in ends, its unread rows are
// buffered in memory and Next keeps serving them.
type Cursor struct {
	db   *DB
	rows *sql.Rows
	cols []string
	row  Row
	err  error

	detached bool
	buffered []Row
}

func newCursor(db *DB, rows *sql.Rows) (*Cursor, error) {
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return &Cursor{db: db, rows: rows, cols: cols}, nil
}

// Columns returns the result column names in select order.
func (c *Cursor) Columns() []string {
	return c.cols
}

// Next advances to the next row. It returns false when the rows are
// exhausted or scanning failed; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.detached {
		if len(c.buffered) == 0 {
			return false
		}
		c.row, c.buffered = c.buffered[0], c.buffered[1:]
		return true
	}

	row, ok := c.scan()
	if !ok {
		c.release()
		return false
	}
	c.row = row
	return true
}

func (c *Cursor) scan() (Row, bool) {
	if c.err != nil || !c.rows.Next() {
		return nil, false
	}

	values := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		c.err = err
		return nil, false
	}

	row := make(Row, len(c.cols))
	for i, col := range c.cols {
		row[col] = values[i]
	}
	return row, true
}

// detach reads the remaining rows into memory and releases the statement.
func (c *Cursor) detach() {
	if c.detached {
		return
	}
	for {
		row, ok := c.scan()
		if !ok {
			break
		}
		c.buffered = append(c.buffered, row)
	}
	if c.err == nil {
		c.err = c.rows.Err()
	}
	_ = c.rows.Close()
	c.detached = true
}

func (c *Cursor) release() {
	if c.db != nil {
		delete(c.db.cursors, c)
	}
}

// Row returns the row loaded by the last call to Next.
func (c *Cursor) Row() Row {
	return c.row
}

// Err returns the first error met while iterating.
func (c *Cursor) Err() error {
	if c.err != nil || c.detached {
		return c.err
	}
	return c.rows.Err()
}

// Close releases the underlying rows.
func (c *Cursor) Close() error {
	c.release()
	c.buffered = nil
	if c.detached {
		return nil
	}
	c.detached = true
	return c.rows.Close()
}

// FetchOne returns the first row and closes the cursor. A nil row with a nil
// error means the query matched nothing.
func (c *Cursor) FetchOne() (Row, error) {
	defer c.Close()

	if !c.Next() {
		return nil, c.Err()
	}
	return c.row, nil
}

// FetchAll drains the cursor and closes it.
func (c *Cursor) FetchAll() ([]Row, error) {
	defer c.Close()

	var out []Row
	for c.Next() {
		out = append(out, c.row)
	}
	return out, c.Err()
}
