package util

import "time"

// Clock abstracts time for components that stamp order expirations.
// Tests substitute a FrozenClock to pin validity windows.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now() }

// FrozenClock always reports the same instant. After still fires on real
// time so timers keep working under test.
type FrozenClock struct {
	Instant time.Time
}

func (c FrozenClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (c FrozenClock) Now() time.Time                         { return c.Instant }
