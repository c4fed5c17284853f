package orm

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/litemapper/internal/database"
	"github.com/saltyorg/litemapper/internal/schema"
)

// Mapper performs CRUD for one model kind over one connection.
type Mapper[T Model] struct {
	db        *database.DB
	kind      *Kind[T]
	table     *schema.Table
	typeCheck bool
}

// NewMapper binds kind to db, creating the kind's table if the catalog does
// not list it yet.
func NewMapper[T Model](db *database.DB, kind *Kind[T], typeCheck bool) (*Mapper[T], error) {
	m := &Mapper[T]{
		db:        db,
		kind:      kind,
		table:     kind.table,
		typeCheck: typeCheck,
	}

	exists, err := db.TableExists(m.table.Name)
	if err != nil {
		return nil, err
	}
	if !exists {
		stmt, err := schema.RenderCreateTable(m.table)
		if err != nil {
			return nil, err
		}
		if err := db.ExecScript(stmt); err != nil {
			return nil, err
		}
		log.Debug().Str("table", m.table.Name).Str("path", db.Path()).Msg("Created table")
	}

	return m, nil
}

// Table returns the descriptor the mapper persists.
func (m *Mapper[T]) Table() *schema.Table {
	return m.table
}

// All returns a single-use sequence over every stored object. The table
// scan runs when iteration starts; call All again for a fresh scan.
func (m *Mapper[T]) All() iter.Seq2[T, error] {
	used := false
	return func(yield func(T, error) bool) {
		if used {
			return
		}
		used = true

		var zero T
		cur, err := m.db.Query("SELECT * FROM " + m.table.Name)
		if err != nil {
			yield(zero, err)
			return
		}
		defer cur.Close()

		for cur.Next() {
			obj, err := m.Create(Values(cur.Row()))
			if !yield(obj, err) || err != nil {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// List collects All into a slice.
func (m *Mapper[T]) List() ([]T, error) {
	var out []T
	for obj, err := range m.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// Create rebuilds an object from stored values through the kind's factory,
// bypassing its regular constructor.
func (m *Mapper[T]) Create(values Values) (T, error) {
	fields := maps.Clone(values)
	delete(fields, schema.IDField)

	obj, err := m.kind.build(m.table.Fields, fields)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to build %s: %w", m.table.Name, err)
	}
	if id, ok := values.Integer(schema.IDField); ok {
		obj.SetID(id)
	}
	return obj, nil
}

// Get loads the object stored under id.
func (m *Mapper[T]) Get(id int64) (T, error) {
	var zero T
	cur, err := m.db.Query("SELECT * FROM "+m.table.Name+" WHERE id = ?", id)
	if err != nil {
		return zero, err
	}
	row, err := cur.FetchOne()
	if err != nil {
		return zero, err
	}
	if row == nil {
		return zero, &MissingObjectError{Model: m.table.Name, ID: id}
	}
	return m.Create(Values(row))
}

// Has reports whether a row with id exists. Only engine failures are errors.
func (m *Mapper[T]) Has(id int64) (bool, error) {
	cur, err := m.db.Query("SELECT id FROM "+m.table.Name+" WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	row, err := cur.FetchOne()
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// Count returns the number of stored rows.
func (m *Mapper[T]) Count() (int64, error) {
	cur, err := m.db.Query("SELECT COUNT(*) AS n FROM " + m.table.Name)
	if err != nil {
		return 0, err
	}
	row, err := cur.FetchOne()
	if err != nil {
		return 0, err
	}
	n, _ := Values(row).Integer("n")
	return n, nil
}

// Save inserts obj as a new row and assigns it the engine's id. An object
// whose id is already stored is rejected; obj is only changed on success.
func (m *Mapper[T]) Save(obj T) (T, error) {
	var zero T
	if id, ok := obj.ID(); ok {
		exists, err := m.Has(id)
		if err != nil {
			return zero, err
		}
		if exists {
			return zero, &DuplicateIdentityError{Model: m.table.Name, ID: id}
		}
	}

	cols, args, err := m.persisted(obj)
	if err != nil {
		return zero, err
	}

	query := "INSERT INTO " + m.table.Name + " DEFAULT VALUES"
	if len(cols) > 0 {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			m.table.Name,
			strings.Join(cols, ", "),
			strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	}

	res, err := m.db.Exec(query, args...)
	if err != nil {
		return zero, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return zero, err
	}

	obj.SetID(id)
	log.Trace().Str("table", m.table.Name).Int64("id", id).Msg("Saved object")
	return obj, nil
}

// Update overwrites every persisted column of the row matching obj's id.
// A missing row is not an error; nothing is written.
func (m *Mapper[T]) Update(obj T) error {
	cols, args, err := m.persisted(obj)
	if err != nil {
		return err
	}

	id, ok := obj.ID()
	if !ok || len(cols) == 0 {
		return nil
	}

	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", m.table.Name, strings.Join(assignments, ", "))

	_, err = m.db.Exec(query, append(args, id)...)
	return err
}

// Delete removes the row matching obj's id, if any. obj itself is untouched.
func (m *Mapper[T]) Delete(obj T) error {
	id, ok := obj.ID()
	if !ok {
		return nil
	}
	_, err := m.db.Exec("DELETE FROM "+m.table.Name+" WHERE id = ?", id)
	return err
}

// persisted returns the columns and values written for obj, checking types
// when enabled. Declared fields come first in declaration order, then any
// other public attributes by name.
func (m *Mapper[T]) persisted(obj T) ([]string, []any, error) {
	values := obj.Values().Public()
	delete(values, schema.IDField)

	names := make([]string, 0, len(values))
	for _, f := range m.table.Public() {
		if _, ok := values[f.Name]; ok {
			names = append(names, f.Name)
		}
	}
	var extra []string
	for name := range values {
		if _, declared := m.table.Field(name); !declared {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	names = append(names, extra...)

	args := make([]any, len(names))
	for i, name := range names {
		if m.typeCheck {
			if err := m.check(name, values[name]); err != nil {
				return nil, nil, err
			}
		}
		args[i] = values[name]
	}
	return names, args, nil
}

func (m *Mapper[T]) check(name string, value any) error {
	field, declared := m.table.Field(name)
	actual, ok := schema.TypeOf(value)
	switch {
	case !declared:
		return &TypeMismatchError{Model: m.table.Name, Field: name, Expected: "undeclared", Actual: typeName(value)}
	case !ok || actual != field.Type:
		return &TypeMismatchError{Model: m.table.Name, Field: name, Expected: field.Type.String(), Actual: typeName(value)}
	}
	return nil
}

func typeName(v any) string {
	if t, ok := schema.TypeOf(v); ok {
		return t.String()
	}
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
