package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock backs Now so tests and fixture generators can freeze "now".
var clock = clockwork.NewRealClock()

// SetClock replaces the package time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time in UTC from the package clock.
func Now() time.Time {
	return clock.Now().UTC()
}
