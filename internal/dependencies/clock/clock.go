package clock

import "github.com/jonboulle/clockwork"

// Clock provides time operations that can be mocked for testing.
// Timers and AfterFunc are included so retry scheduling can be driven by a fake clock.
type Clock = clockwork.Clock

// New creates a Clock backed by the system clock
func New() Clock {
	return clockwork.NewRealClock()
}
