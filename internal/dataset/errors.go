package dataset

import (
	"errors"
	"fmt"
)

// Load failure classes, matched with errors.Is through a LoadError
var (
	ErrMalformed          = errors.New("malformed document")
	ErrDuplicateID        = errors.New("duplicate food id")
	ErrIDMismatch         = errors.New("detail id does not match index id")
	ErrUndefinedNutrient  = errors.New("undefined nutrient code")
	ErrUndefinedCategory  = errors.New("undefined category code")
	ErrUnitMismatch       = errors.New("unit does not match taxonomy")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrDuplicateTaxonomy  = errors.New("duplicate taxonomy code")
	ErrUnsafeFoodID       = errors.New("food id is not a valid file name")
	ErrMissingIndexedFood = errors.New("indexed food has no detail file")
)

// LoadError is returned when the data directory cannot be loaded in full.
// The server must not start on a LoadError.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load error: %v", e.Err)
	}
	return fmt.Sprintf("load error: %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErrorf(path string, sentinel error, format string, args ...any) *LoadError {
	return &LoadError{
		Path: path,
		Err:  fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
	}
}
