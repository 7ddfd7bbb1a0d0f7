// Package leader tracks the leader virtual modifier: a single optional
// deadline set when the leader combination is pressed, consumed by the
// first binding it serves or the first unmatched keypress, and expiring
// lazily after its timeout.
package leader

import "time"

// State is the leader activation state for one window/focus owner.
// The zero value is inactive. Not safe for concurrent use.
type State struct {
	deadline time.Time
	armed    bool

	now func() time.Time
}

// NewState creates an inactive leader state.
func NewState() *State {
	return &State{now: time.Now}
}

// NewStateWithClock creates an inactive leader state with an injected
// clock.
func NewStateWithClock(now func() time.Time) *State {
	return &State{now: now}
}

// Activate arms the leader for the given timeout and returns the
// deadline. Overwriting an existing deadline is sufficient cancellation
// of any previously scheduled expiry redraw; a stale task's redraw is
// redundant, never incorrect.
func (s *State) Activate(timeout time.Duration) time.Time {
	s.deadline = s.now().Add(timeout)
	s.armed = true
	return s.deadline
}

// IsActive reconciles the deadline lazily. expired is true only on the
// first observation after the deadline passes: the caller tears down
// title/redraw state exactly once per expiry.
func (s *State) IsActive() (active, expired bool) {
	if !s.armed {
		return false, false
	}
	if s.now().Before(s.deadline) {
		return true, false
	}
	s.armed = false
	return false, true
}

// Deadline returns the current deadline while armed.
func (s *State) Deadline() (time.Time, bool) {
	return s.deadline, s.armed
}

// Done clears the leader state. Called when a binding is served under
// the leader modifier or an unmatched keypress swallows it.
func (s *State) Done() {
	s.armed = false
}
