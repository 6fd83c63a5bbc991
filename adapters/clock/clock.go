// Package clock provides Clock implementations.
package clock

import (
	"sync"
	"time"
)

// Precision is the resolution of stored timestamps. Clocks round down to it
// so a value read back from storage equals the value written.
const Precision = time.Millisecond

// Real reads the system clock in UTC.
type Real struct{}

// Now returns the current UTC time at storage precision.
func (Real) Now() time.Time {
	return time.Now().UTC().Truncate(Precision)
}

// Fake is a controllable clock for tests. Each call to Now advances it by
// Step, which lets tests create rows with distinct timestamps.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewFake creates a fake clock that stays at t until moved.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t.UTC()}
}

// NewTicking creates a fake clock that advances by step on every read.
func NewTicking(t time.Time, step time.Duration) *Fake {
	return &Fake{current: t.UTC(), step: step}
}

// Now returns the fake time, then applies the step.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.current
	f.current = f.current.Add(f.step)
	return now
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t.UTC()
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
