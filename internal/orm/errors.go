package orm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingObject is returned when a lookup by id matches no row.
	ErrMissingObject = errors.New("missing object")
	// ErrDuplicateIdentity is returned when saving an object whose id is already stored.
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrTypeMismatch is returned when a type-checked write meets a wrongly typed value.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrNoConnection is returned by a Kind that was never bound to a database.
	ErrNoConnection = errors.New("no connection bound")
)

// MissingObjectError carries the model and id of a failed lookup.
type MissingObjectError struct {
	Model string
	ID    int64
}

func (e *MissingObjectError) Error() string {
	return fmt.Sprintf("%s: %s with id %d does not exist", ErrMissingObject, e.Model, e.ID)
}

func (e *MissingObjectError) Unwrap() error {
	return ErrMissingObject
}

// DuplicateIdentityError carries the model and id that is already stored.
type DuplicateIdentityError struct {
	Model string
	ID    int64
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("%s: %s with id %d already saved", ErrDuplicateIdentity, e.Model, e.ID)
}

func (e *DuplicateIdentityError) Unwrap() error {
	return ErrDuplicateIdentity
}

// TypeMismatchError names the first field whose value does not match its
// declared type. Expected is "undeclared" for attributes with no field.
type TypeMismatchError struct {
	Model    string
	Field    string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s.%s expects %s, got %s", ErrTypeMismatch, e.Model, e.Field, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
