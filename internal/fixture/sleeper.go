package fixture

import "time"

// Sleeper blocks the calling goroutine for d. Implementations must not
// return early; the stall is the whole point of the fixture.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a plain function to Sleeper.
type SleeperFunc func(d time.Duration)

// Sleep calls f(d).
func (f SleeperFunc) Sleep(d time.Duration) {
	f(d)
}

// RealSleeper sleeps on the wall clock.
var RealSleeper Sleeper = SleeperFunc(time.Sleep)

// ScaledSleeper sleeps for d divided by Factor. A Factor of 1000 turns the
// default 100s delay into 100ms while keeping the relative timing of
// requests intact.
type ScaledSleeper struct {
	Factor int64
}

// Sleep sleeps for the scaled duration.
func (s ScaledSleeper) Sleep(d time.Duration) {
	if s.Factor <= 1 {
		time.Sleep(d)
		return
	}
	time.Sleep(d / time.Duration(s.Factor))
}
