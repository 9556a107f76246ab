package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnknownReference reports a foreign key pointing at a missing row.
	ErrUnknownReference = errors.New("unknown reference")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// DuplicateError names the violated constraint.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate record (%s)", e.Constraint)
}

// Is lets errors.Is(err, ErrDuplicate) match.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// asDuplicate maps unique and foreign key violations onto repository errors, returning nil otherwise.
func asDuplicate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case uniqueViolation:
		return &DuplicateError{Constraint: pqErr.Constraint}
	case foreignKeyViolation:
		return fmt.Errorf("%w (%s)", ErrUnknownReference, pqErr.Constraint)
	}
	return nil
}
