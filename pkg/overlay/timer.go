package overlay

import (
	"math"
	"time"
)

// SetTimer starts (or restarts) the countdown timer for the given
// number of seconds. Fractional seconds round up for display.
func (s *Store) SetTimer(seconds float64) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.timer = &Timer{
		Target:    now.Add(time.Duration(seconds * float64(time.Second))),
		Remaining: int(math.Ceil(seconds)),
	}
	s.notifyLocked()
	return *s.timer
}

// CancelTimer clears the timer. Returns false when no timer was set.
func (s *Store) CancelTimer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		return false
	}
	s.timer = nil
	s.notifyLocked()
	return true
}

// TickTimer recomputes remaining time from the wall clock. When the
// countdown reaches zero the timer is cleared after one final zero
// snapshot so the display shows 0 before disappearing. Returns the
// remaining seconds and whether a timer was active at tick time.
func (s *Store) TickTimer() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		return 0, false
	}

	remaining := int(math.Ceil(s.timer.Target.Sub(s.now()).Seconds()))
	if remaining <= 0 {
		s.timer.Remaining = 0
		s.notifyLocked()
		s.timer = nil
		s.notifyLocked()
		return 0, true
	}

	if remaining != s.timer.Remaining {
		s.timer.Remaining = remaining
		s.notifyLocked()
	}
	return remaining, true
}

// TimerActive reports whether a countdown is running.
func (s *Store) TimerActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timer != nil
}
