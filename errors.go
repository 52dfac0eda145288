package listsim

import (
	"errors"
	"fmt"
)

// Error kinds returned by DataFrame lookups and column kernels. Test for
// them with errors.Is; the offending column is available through
// errors.As with a *ColumnError.
var (
	// ErrColumnNotFound occurs when a requested column name is absent
	ErrColumnNotFound = errors.New("column not found")
	// ErrTypeMismatch occurs when a column's type cannot be coerced to the expected shape
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrShapeMismatch occurs when columns that must be row-aligned have different lengths
	ErrShapeMismatch = errors.New("shape mismatch")
)

// ColumnError ties an error kind to the column that caused it
type ColumnError struct {
	Column string
	Kind   error
	Detail string
}

// Error returns a textual representation of this ColumnError
func (e *ColumnError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %q", e.Kind, e.Column)
	}
	return fmt.Sprintf("%v: %q: %s", e.Kind, e.Column, e.Detail)
}

// Unwrap returns the error kind
func (e *ColumnError) Unwrap() error {
	return e.Kind
}

func columnNotFound(name string) error {
	return &ColumnError{Column: name, Kind: ErrColumnNotFound}
}

func typeMismatch(name, expected, got string) error {
	return &ColumnError{
		Column: name,
		Kind:   ErrTypeMismatch,
		Detail: fmt.Sprintf("expected %s, got %s", expected, got),
	}
}

func shapeMismatch(name string, expected, got int) error {
	return &ColumnError{
		Column: name,
		Kind:   ErrShapeMismatch,
		Detail: fmt.Sprintf("expected length %d, got %d", expected, got),
	}
}
