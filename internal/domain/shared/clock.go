package shared

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Services never call time.Now directly.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Used in tests.
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return c.At
}

// IDGenerator produces primary keys for new entities
type IDGenerator interface {
	NewID() uuid.UUID
}

// UUIDGenerator generates random v4 UUIDs
type UUIDGenerator struct{}

// NewID returns a new random UUID
func (UUIDGenerator) NewID() uuid.UUID {
	return uuid.New()
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
