package ledger

import (
	"strings"
	"time"
)

// Caller is the authenticated identity an operation runs on behalf of.
type Caller struct {
	Address string
}

// NewCaller trims and wraps an address.
func NewCaller(address string) Caller {
	return Caller{Address: strings.TrimSpace(address)}
}

// Owns reports whether the caller is the given owner address.
func (c Caller) Owns(owner string) bool {
	return c.Address != "" && c.Address == owner
}

// Clock supplies booking timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
