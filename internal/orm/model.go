package orm

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/saltyorg/litemapper/internal/schema"
)

// Model is a value persisted as one row of its kind's table.
type Model interface {
	// ID returns the stored identity; ok is false until the object is saved
	// or was loaded from storage.
	ID() (id int64, ok bool)
	SetID(id int64)
	// Values returns the object's attributes keyed by column name.
	Values() Values
}

// Identity is an embeddable id holder. Whether an id is set is tracked
// explicitly, so zero is a valid identity.
type Identity struct {
	id  int64
	set bool
}

func (i *Identity) ID() (int64, bool) {
	return i.id, i.set
}

func (i *Identity) SetID(id int64) {
	i.id = id
	i.set = true
}

// Values maps attribute names to values.
type Values map[string]any

// Public returns a copy without underscore prefixed names.
func (v Values) Public() Values {
	out := make(Values, len(v))
	for k, val := range v {
		if !schema.IsPrivate(k) {
			out[k] = val
		}
	}
	return out
}

// Text returns the named value if it holds a string.
func (v Values) Text(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

// Integer returns the named value if it holds an integer that fits in an int64.
func (v Values) Integer(name string) (int64, bool) {
	return schema.AsInteger(v[name])
}

// Real returns the named value if it holds a float.
func (v Values) Real(name string) (float64, bool) {
	switch f := v[name].(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	default:
		return 0, false
	}
}

// String renders the values with keys in sorted order.
func (v Values) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range slices.Sorted(maps.Keys(v)) {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		if s, ok := v[k].(string); ok {
			b.WriteString(strconv.Quote(s))
		} else {
			b.WriteString(render(v[k]))
		}
	}
	b.WriteByte('}')
	return b.String()
}

// Public returns the attributes of m that take part in persistence and
// display, with id included once assigned.
func Public(m Model) Values {
	out := m.Values().Public()
	delete(out, schema.IDField)
	if id, ok := m.ID(); ok {
		out[schema.IDField] = id
	}
	return out
}

// Record is a model whose attributes live in a map. It suits tables whose
// shape is only known at runtime.
type Record struct {
	Identity
	values Values
}

// NewRecord returns a transient record holding a copy of values.
func NewRecord(values Values) *Record {
	r := &Record{values: make(Values, len(values))}
	for k, v := range values {
		if k == schema.IDField {
			continue
		}
		r.values[k] = v
	}
	return r
}

// BuildRecord is the stored-fields factory for Record kinds.
func BuildRecord(_ []schema.Field, values Values) (*Record, error) {
	return NewRecord(values), nil
}

// Get returns one attribute.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set assigns one attribute. Setting id goes through SetID instead.
func (r *Record) Set(name string, value any) {
	if name == schema.IDField {
		if id, ok := (Values{name: value}).Integer(name); ok {
			r.SetID(id)
		}
		return
	}
	if r.values == nil {
		r.values = Values{}
	}
	r.values[name] = value
}

// Values returns a copy of the record's attributes.
func (r *Record) Values() Values {
	return maps.Clone(r.values)
}

func (r *Record) String() string {
	return Public(r).String()
}

func render(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
