// Package dispatch routes key events to exactly one of: an application
// action, literal text delivered to the active pane, or a deliberate
// no-op. Resolution honors the modal key-table stack, the leader
// virtual modifier, and the multiple representations (physical, raw,
// mapped) a single keypress can carry.
package dispatch

import (
	"io"
	"time"

	"github.com/dshills/keyroute/internal/input/key"
	"github.com/dshills/keyroute/internal/input/keymap"
	"github.com/dshills/keyroute/internal/input/keytable"
)

// PerformResult is the outcome of executing an action.
type PerformResult uint8

const (
	// PerformIgnored means the action did not consume the event; later
	// resolution passes or pass-through may still run.
	PerformIgnored PerformResult = iota

	// PerformHandled means the action consumed the event.
	PerformHandled
)

// Pane is the active terminal session receiving resolved input.
type Pane interface {
	// ID identifies the pane.
	ID() int

	// KeyDown delivers a key press.
	KeyDown(code key.Code, mods key.Modifier) error

	// KeyUp delivers a key release.
	KeyUp(code key.Code, mods key.Modifier) error

	// Writer is the pane's byte sink for literal text.
	Writer() io.Writer

	// Encoding reports the input encoding the pane expects.
	Encoding() key.Encoding
}

// Performer executes application actions. An error counts as handled:
// a failing binding must not also fall through to literal text
// delivery.
type Performer interface {
	Perform(pane Pane, action keymap.Action) (PerformResult, error)
}

// Surface receives redraw, cursor and scroll requests from the router.
type Surface interface {
	// Invalidate requests a repaint.
	Invalidate()

	// ClearCursorOverride clears any displayed cursor style override.
	ClearCursorOverride()

	// UpdateTitle refreshes title/status display.
	UpdateTitle()

	// NextWake tells the frame scheduler the next instant at which
	// lazily-expiring state needs a repaint.
	NextWake(at time.Time)

	// ScrollToBottom scrolls the pane to the bottom on input.
	ScrollToBottom(pane Pane)
}

// Scheduler posts a deferred task keyed to a wall-clock deadline. Tasks
// request repaints only, so a task outliving the state that scheduled it
// is harmless.
type Scheduler interface {
	At(t time.Time, fn func())
}

// Modal is a pane-level modal overlay. It owns its own key-table stack,
// consulted before the global one, and intercepts key delivery ahead of
// pass-through.
type Modal interface {
	// TableState is the overlay's own key-table stack.
	TableState() *keytable.State

	// KeyDown receives keys the overlay intercepts.
	KeyDown(code key.Code, mods key.Modifier) error
}

// BindingSource is the read-only configured binding surface.
// Implemented by keymap.Registry.
type BindingSource interface {
	keytable.Bindings

	// IsLeader reports whether code+mods is the leader activation,
	// returning the leader timeout on match.
	IsLeader(code key.Code, mods key.Modifier) (time.Duration, bool)
}

// Config configures the router.
type Config struct {
	// DebugKeyEvents enables per-resolution trace records and logging.
	DebugKeyEvents bool

	// SwapBackspaceDelete swaps the two keys during terminal resolution.
	SwapBackspaceDelete bool

	// ComposeWhenLeftAlt sends the composed form when left Alt is held.
	// When false, left Alt bypasses composition.
	ComposeWhenLeftAlt bool

	// ComposeWhenRightAlt sends the composed form when right Alt
	// (AltGr) is held.
	ComposeWhenRightAlt bool

	// AllowCSIuEncoding permits CSI u encoded delivery for panes that
	// request it.
	AllowCSIuEncoding bool
}
