package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrCapacity   = errors.New("insufficient seats")
	ErrInternal   = errors.New("internal error")
	ErrNoChange   = errors.New("no modification made")
)

// ValidationError reports a required field that is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

type CapacityError struct {
	TrainID   int64
	Requested int
	Available int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("train %d: requested %d seats, %d available", e.TrainID, e.Requested, e.Available)
}

func (e CapacityError) Is(target error) bool { return target == ErrCapacity }

// IsExpected reports failures that are answered with a result rather than
// propagated as errors.
func IsExpected(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCapacity) ||
		errors.Is(err, ErrNoChange)
}
