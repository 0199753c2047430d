// Package clock abstracts time.Now so that hold expiry can be driven
// deterministically in tests.
package clock

import (
    "sync"
    "time"
)

// Clock supplies the current instant.  All timestamps produced through a
// Clock are UTC.
type Clock interface {
    Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by the wall clock.
func System() Clock { return systemClock{} }

// Fixed is a manually advanced Clock for tests.
type Fixed struct {
    mu sync.Mutex
    t  time.Time
}

// NewFixed returns a Fixed clock pinned at t.
func NewFixed(t time.Time) *Fixed { return &Fixed{t: t.UTC()} }

func (f *Fixed) Now() time.Time {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.t
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
    f.mu.Lock()
    f.t = f.t.Add(d)
    f.mu.Unlock()
}
