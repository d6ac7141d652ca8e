package application

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateEmail       = errors.New("email already in use")
	ErrAccountNotFound      = errors.New("account not found")
	ErrMissingOldPassword   = errors.New("old password is required to set a new password")
	ErrIncorrectOldPassword = errors.New("old password is incorrect")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInternal             = errors.New("internal error")
)

// InternalError carries a store or hasher failure up to the caller untouched.
// errors.Is matches both ErrInternal and the wrapped cause.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() []error {
	return []error{ErrInternal, e.Err}
}

func internal(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}

// InputError describes which field failed validation. It matches ErrInvalidInput.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
