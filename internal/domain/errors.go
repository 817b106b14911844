package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnexpectedField         = errors.New("unexpected field name")
	ErrInvalidValue            = errors.New("invalid field value")
	ErrMissingConsistencyToken = errors.New("missing field (consistency_token)")
	ErrConsistency             = errors.New("item has changed")

	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("user profile not found")
	ErrUsernameTaken   = errors.New("username already exists")
)

// FieldError names the fields a dict write rejected. It unwraps to its Kind.
type FieldError struct {
	Kind   error
	Fields []string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Fields, ", "))
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

func UnexpectedFields(names ...string) error {
	sort.Strings(names)
	return &FieldError{Kind: ErrUnexpectedField, Fields: names}
}

func InvalidValue(name string, cause error) error {
	return &FieldError{Kind: ErrInvalidValue, Fields: []string{fmt.Sprintf("%s (%v)", name, cause)}}
}
