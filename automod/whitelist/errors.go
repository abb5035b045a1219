package whitelist

import (
	"errors"
	"fmt"
)

var (
	// Backend has never been written to.
	ErrNotExist = errors.New("whitelist does not exist")
	// Caller supplied an empty username or reason.
	ErrInvalidInput = errors.New("invalid whitelist input")
)

// Returned when the backend could not be read at startup, or could not be written during a mutation. In the mutation case, no change was made to the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("whitelist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
