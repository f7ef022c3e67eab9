// Package common defines shared constants and sentinel errors used across
// the BowWow server and client. Callers should use errors.Is / errors.As to
// match these values.
package common

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal    = errors.New("internal error")
	ErrNotAuthorized = errors.New("not authorized to respond to this signal")
	ErrUserOffline   = errors.New("user is offline")
	ErrShuttingDown  = errors.New("service shutting down")

	// Validation errors.
	ErrInvalidLocation = errors.New("invalid location")
	ErrInvalidDistance = errors.New("invalid distance")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrInvalidRange    = errors.New("invalid time range")

	// Encryption errors.
	ErrInvalidKey       = errors.New("invalid encryption key")
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrCooldownActive is the target matched by errors.Is for a *CooldownError.
	ErrCooldownActive = errors.New("signal cooldown active")
)

// CooldownError is returned when a sender tries to send a new signal while a
// previous one is still active inside the cooldown window.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %d seconds remaining", ErrCooldownActive, e.RemainingSeconds())
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// RemainingSeconds rounds the remaining cooldown up to whole seconds.
func (e *CooldownError) RemainingSeconds() int64 {
	return int64(math.Ceil(e.Remaining.Seconds()))
}
