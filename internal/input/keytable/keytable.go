// Package keytable implements the modal key-table stack: transiently
// activated keybinding scopes with expiration, one-shot, until-unknown
// and prevent-fallback exit policies, and the ordered lookup scan the
// dispatcher resolves key events against.
package keytable

import (
	"time"

	"github.com/dshills/keyroute/internal/input/key"
	"github.com/dshills/keyroute/internal/input/keymap"
)

// Bindings is the read-only lookup surface the stack resolves against.
// Implemented by keymap.Registry.
type Bindings interface {
	// LookupKey finds the action bound to code+mods in the named table.
	LookupKey(code key.Code, mods key.Modifier, table string) (keymap.Action, bool)
}

// Activation describes one key-table activation and its exit policy.
type Activation struct {
	// Name is the key table to activate.
	Name string

	// Timeout, when non-zero, expires the activation after inactivity.
	// A matching key re-arms the deadline.
	Timeout time.Duration

	// ReplaceCurrent pops the current top frame before pushing.
	ReplaceCurrent bool

	// OneShot pops the frame after it serves one key press.
	OneShot bool

	// UntilUnknown pops the frame as soon as an event fails to match
	// anywhere during that event's full resolution.
	UntilUnknown bool

	// PreventFallback swallows unmatched events as a no-op instead of
	// letting them reach lower-priority sources.
	PreventFallback bool
}

// frame is one live activation on the stack.
type frame struct {
	name            string
	expiration      time.Time
	hasExpiration   bool
	oneShot         bool
	untilUnknown    bool
	preventFallback bool
	timeout         time.Duration
}

// Result is a successful lookup: the action and the table that served it.
type Result struct {
	Action keymap.Action
	Table  string
}

// State is the modal key-table stack for one window/focus owner. The
// top of the stack is the most recent activation and has the highest
// lookup priority. State is not safe for concurrent use; dispatch is
// single-threaded by design.
//
// Expiration is lazy: there is no background timer. Every read
// reconciles the top of the stack against the clock first.
type State struct {
	stack []frame

	// now is the clock; replaceable for tests.
	now func() time.Time
}

// NewState creates an empty stack.
func NewState() *State {
	return &State{now: time.Now}
}

// NewStateWithClock creates an empty stack with an injected clock.
func NewStateWithClock(now func() time.Time) *State {
	return &State{now: now}
}

// Activate pushes a key-table activation.
func (s *State) Activate(a Activation) {
	if a.ReplaceCurrent {
		s.Pop()
	}
	f := frame{
		name:            a.Name,
		oneShot:         a.OneShot,
		untilUnknown:    a.UntilUnknown,
		preventFallback: a.PreventFallback,
		timeout:         a.Timeout,
	}
	if a.Timeout > 0 {
		f.expiration = s.now().Add(a.Timeout)
		f.hasExpiration = true
	}
	s.stack = append(s.stack, f)
}

// Pop removes the top frame. No-op on an empty stack.
func (s *State) Pop() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// Clear removes all frames.
func (s *State) Clear() {
	s.stack = s.stack[:0]
}

// Depth returns the number of live frames.
func (s *State) Depth() int {
	return len(s.stack)
}

// ProcessExpiration pops the top frame if its deadline has passed and
// reports whether it did. Callers loop until false to fully reconcile
// lazy expiry before reading the stack.
func (s *State) ProcessExpiration() bool {
	if len(s.stack) == 0 {
		return false
	}
	top := &s.stack[len(s.stack)-1]
	if !top.hasExpiration || s.now().Before(top.expiration) {
		return false
	}
	s.Pop()
	return true
}

// PopUntilUnknown pops frames from the top while they are marked
// until-unknown. Called exactly once per event, only after every
// resolution pass for that event has completed with no match.
func (s *State) PopUntilUnknown() {
	for len(s.stack) > 0 && s.stack[len(s.stack)-1].untilUnknown {
		s.Pop()
	}
}

// CurrentTable reconciles expiration and returns the top frame's name.
func (s *State) CurrentTable() (string, bool) {
	for s.ProcessExpiration() {
	}
	if len(s.stack) == 0 {
		return "", false
	}
	return s.stack[len(s.stack)-1].name, true
}

// TopExpiration returns the top frame's deadline, if it has one. Used
// by the frame scheduler to wake up when a table is due to expire.
func (s *State) TopExpiration() (time.Time, bool) {
	if len(s.stack) == 0 {
		return time.Time{}, false
	}
	top := s.stack[len(s.stack)-1]
	return top.expiration, top.hasExpiration
}

// LookupKey scans the stack from top to bottom for a binding matching
// code+mods.
//
// A hit re-arms the serving frame's expiration (activity keeps the
// table alive) and stops the scan. A prevent-fallback frame reached
// without a match stops the scan with a synthetic no-op result tagged
// with that frame's name, so the event is swallowed rather than reaching
// lower-priority sources.
//
// Frames marked until-unknown that sat above the frame that ultimately
// served the request are popped before returning - but only when the
// scan produced a result. On a total miss nothing is popped here: the
// same physical keypress is resolved through up to three code
// representations, and popping after an early pass would corrupt the
// stack seen by the later ones. The dispatcher calls PopUntilUnknown
// once, after the final pass misses.
func (s *State) LookupKey(bindings Bindings, code key.Code, mods key.Modifier) (Result, bool) {
	for s.ProcessExpiration() {
	}

	popCount := 0
	var result Result
	found := false

	for i := len(s.stack) - 1; i >= 0; i-- {
		f := &s.stack[i]

		if action, ok := bindings.LookupKey(code, mods, f.name); ok {
			if f.timeout > 0 {
				f.expiration = s.now().Add(f.timeout)
				f.hasExpiration = true
			}
			result = Result{Action: action, Table: f.name}
			found = true
			break
		}

		if f.untilUnknown {
			popCount++
		}

		if f.preventFallback {
			result = Result{Action: keymap.Nop(), Table: f.name}
			found = true
			break
		}
	}

	if found {
		for ; popCount > 0; popCount-- {
			s.Pop()
		}
	}

	return result, found
}

// DidProcessKey pops the top frame if it is one-shot. Called once,
// immediately after an action has been dispatched.
func (s *State) DidProcessKey() {
	if len(s.stack) > 0 && s.stack[len(s.stack)-1].oneShot {
		s.Pop()
	}
}
