package orm

import (
	"iter"

	"github.com/saltyorg/litemapper/internal/database"
	"github.com/saltyorg/litemapper/internal/schema"
)

// Builder rebuilds a model from the values stored for its declared fields.
type Builder[T Model] func(fields []schema.Field, values Values) (T, error)

// Kind registers one model type: its descriptor, its stored-fields factory
// and the connection its active-record methods use.
//
// A Kind is immutable; With and Checked return adjusted copies. Every call
// builds a fresh Mapper, so the table check runs against whichever
// connection is bound at that moment.
type Kind[T Model] struct {
	table     *schema.Table
	build     Builder[T]
	db        *database.DB
	typeCheck bool
}

// Register declares a model type. Type checking is on by default.
func Register[T Model](table *schema.Table, build Builder[T]) *Kind[T] {
	return &Kind[T]{table: table, build: build, typeCheck: true}
}

// Table returns the kind's descriptor.
func (k *Kind[T]) Table() *schema.Table {
	return k.table
}

// With returns a copy of k bound to db.
func (k *Kind[T]) With(db *database.DB) *Kind[T] {
	c := *k
	c.db = db
	return &c
}

// Checked returns a copy of k with type checking set to enabled.
func (k *Kind[T]) Checked(enabled bool) *Kind[T] {
	c := *k
	c.typeCheck = enabled
	return &c
}

// Mapper builds a mapper over the bound connection.
func (k *Kind[T]) Mapper() (*Mapper[T], error) {
	if k.db == nil {
		return nil, ErrNoConnection
	}
	return NewMapper(k.db, k, k.typeCheck)
}

// Save inserts obj through a fresh mapper.
func (k *Kind[T]) Save(obj T) (T, error) {
	m, err := k.Mapper()
	if err != nil {
		var zero T
		return zero, err
	}
	return m.Save(obj)
}

// Update writes obj's current values through a fresh mapper.
func (k *Kind[T]) Update(obj T) error {
	m, err := k.Mapper()
	if err != nil {
		return err
	}
	return m.Update(obj)
}

// Delete removes obj's row through a fresh mapper.
func (k *Kind[T]) Delete(obj T) error {
	m, err := k.Mapper()
	if err != nil {
		return err
	}
	return m.Delete(obj)
}

// Get loads one object through a fresh mapper.
func (k *Kind[T]) Get(id int64) (T, error) {
	m, err := k.Mapper()
	if err != nil {
		var zero T
		return zero, err
	}
	return m.Get(id)
}

// All scans the table through a fresh mapper. A failure to build the mapper
// is yielded as the sequence's only element.
func (k *Kind[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		m, err := k.Mapper()
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for obj, err := range m.All() {
			if !yield(obj, err) {
				return
			}
		}
	}
}
