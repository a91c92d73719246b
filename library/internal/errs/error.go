package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateISBN = errors.New("isbn already exists")
)

// InsufficientCopiesError is returned when a borrow asks for more copies than the book has.
type InsufficientCopiesError struct {
	Available int
}

func (e *InsufficientCopiesError) Error() string {
	return fmt.Sprintf("Not enough copies available. Only %d left.", e.Available)
}
