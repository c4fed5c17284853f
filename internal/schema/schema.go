// Package schema describes model types as ordered field descriptors and
// renders the DDL for the table backing each of them.
package schema

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// IDField is the reserved primary key column present on every table.
const IDField = "id"

// ErrMissingTypeMapping is returned when a field declares a type with no SQL equivalent.
var ErrMissingTypeMapping = errors.New("missing type mapping")

// Type is the declared primitive value type of a field.
type Type int

const (
	Text Type = iota + 1
	Integer
	Real
)

var sqlTypes = map[Type]string{
	Text:    "TEXT",
	Integer: "INTEGER",
	Real:    "REAL",
}

func (t Type) String() string {
	switch t {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Real:
		return "real"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// SQL returns the column type for t.
func (t Type) SQL() (string, error) {
	if s, ok := sqlTypes[t]; ok {
		return s, nil
	}
	return "", ErrMissingTypeMapping
}

// TypeOf classifies a runtime value. ok is false for values with no
// primitive equivalent, nil and unsigned values beyond int64 included.
func TypeOf(v any) (t Type, ok bool) {
	switch v.(type) {
	case string:
		return Text, true
	case float32, float64:
		return Real, true
	}
	if _, ok := AsInteger(v); ok {
		return Integer, true
	}
	return 0, false
}

// AsInteger converts any Go integer that fits in an int64.
func AsInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return fitInt64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return fitInt64(n)
	default:
		return 0, false
	}
}

func fitInt64(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

// Field is a single declared column.
type Field struct {
	Name string
	Type Type
}

// Table is the ordered field descriptor of one model type. Name is used
// verbatim as the table name.
type Table struct {
	Name   string
	Fields []Field
}

// New builds a descriptor from name and fields.
func New(name string, fields ...Field) *Table {
	return &Table{Name: name, Fields: fields}
}

// Public returns the persisted fields in declaration order: underscore
// prefixed names and the reserved id are skipped.
func (t *Table) Public() []Field {
	out := make([]Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if IsPrivate(f.Name) || f.Name == IDField {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Field looks up a public field by name.
func (t *Table) Field(name string) (Field, bool) {
	for _, f := range t.Public() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsPrivate reports whether name is excluded from persistence.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, "_")
}

// MissingTypeMappingError names the field whose type could not be rendered.
type MissingTypeMappingError struct {
	Table string
	Field string
	Type  Type
}

func (e *MissingTypeMappingError) Error() string {
	return fmt.Sprintf("%s: %s.%s has %s", ErrMissingTypeMapping, e.Table, e.Field, e.Type)
}

func (e *MissingTypeMappingError) Unwrap() error {
	return ErrMissingTypeMapping
}

// RenderCreateTable returns the CREATE TABLE statement for t. Identifiers
// are emitted unquoted, so names must be valid bare SQL identifiers.
func RenderCreateTable(t *Table) (string, error) {
	cols := []string{IDField + " INTEGER PRIMARY KEY AUTOINCREMENT"}
	for _, f := range t.Public() {
		sqlType, err := f.Type.SQL()
		if err != nil {
			return "", &MissingTypeMappingError{Table: t.Name, Field: f.Name, Type: f.Type}
		}
		cols = append(cols, f.Name+" "+sqlType)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", t.Name, strings.Join(cols, ", ")), nil
}
