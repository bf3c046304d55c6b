package services

import (
	"errors"
	"strings"
)

var (
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidStatus    = errors.New("invalid invoice status")
	ErrInvalidImageKind = errors.New("invalid image kind")
	ErrProfileExists    = errors.New("business profile already exists")
)

// ValidationError carries every invoice validation message.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
