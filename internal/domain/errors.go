package domain

import (
	"errors"
	"sort"
	"strings"
)

// Domain errors
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrWithdrawalStopped  = errors.New("withdrawal facility is temporarily stopped")
	ErrTiffinNotFound     = errors.New("invalid tiffin")
	ErrTiffinUnavailable  = errors.New("tiffin is not available")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOrderClosed        = errors.New("order is already closed")
	ErrStatusConflict     = errors.New("order status changed concurrently")
	ErrAlreadyAssigned    = errors.New("delivery already assigned")
	ErrProfileMissing     = errors.New("role profile not found")
)

// ValidationError maps request fields to messages
type ValidationError map[string]string

func (v ValidationError) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field ValidationError
func Invalid(field, message string) ValidationError {
	return ValidationError{field: message}
}
