package utils

import (
	"errors"
	"fmt"
	"regexp"
)

// MaxPayloadSize caps one upstream page body
const MaxPayloadSize = 4 * 1024 * 1024

// MaxIDLength caps service identifiers
const MaxIDLength = 128

// SafeIDPattern allows alphanumeric, hyphens, underscores. Service IDs end up
// in URL paths and query strings.
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var (
	ErrInvalidID       = errors.New("invalid identifier")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// ValidateID checks an identifier against SafeIDPattern and MaxIDLength
func ValidateID(id string) error {
	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: %d characters exceeds maximum %d", ErrInvalidID, len(id), MaxIDLength)
	}
	if !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q (allowed: letters, digits, - and _)", ErrInvalidID, id)
	}
	return nil
}

// SizeValidator enforces a byte limit on payloads
type SizeValidator struct {
	maxSize int
}

// NewSizeValidator creates a new validator with the specified max size
func NewSizeValidator(maxSize int) *SizeValidator {
	return &SizeValidator{maxSize: maxSize}
}

// DefaultSizeValidator returns a validator with the MaxPayloadSize limit
func DefaultSizeValidator() *SizeValidator {
	return NewSizeValidator(MaxPayloadSize)
}

// ValidateSize checks if the data size is within limits
func (v *SizeValidator) ValidateSize(data []byte) error {
	if v.maxSize > 0 && len(data) > v.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds maximum %d bytes", ErrPayloadTooLarge, len(data), v.maxSize)
	}
	return nil
}
