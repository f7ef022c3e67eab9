// Package clock abstracts time and identifier generation so the timed
// parts of the server can be driven by a virtual clock in tests.
package clock

import (
	"time"

	"github.com/google/uuid"
)

// Clock reports the current time and schedules timed waits.
type Clock interface {
	Now() time.Time
	// After delivers the time on the returned channel once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }

// IDGenerator produces unique identifiers.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
