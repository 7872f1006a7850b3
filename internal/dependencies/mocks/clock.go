package mocks

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/roster/internal/dependencies/clock"
)

// MockClock is a fake clock for tests. Advance fires any timers that fall due.
type MockClock = clockwork.FakeClock

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return clockwork.NewFakeClockAt(t)
}
