package ports

import (
	"errors"
	"fmt"
)

// ErrPersistence classifies every failure of the backing store.
var ErrPersistence = errors.New("persistence error")

// PersistenceError is a backing store failure for a named operation.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err unless it already is a persistence error.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
