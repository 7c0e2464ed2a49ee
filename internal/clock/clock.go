package clock

import (
	"time"

	"tvnotifier/internal/ports"
)

// System reads the real wall clock.
type System struct{}

var _ ports.Clock = System{}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant; used in tests and dry runs.
type Fixed struct {
	Instant time.Time
}

var _ ports.Clock = Fixed{}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return f.Instant
}
