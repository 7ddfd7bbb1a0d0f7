package dispatch

import (
	"time"

	"github.com/dshills/keyroute/internal/input/key"
	"github.com/dshills/keyroute/internal/input/keymap"
	"github.com/dshills/keyroute/internal/input/keytable"
	"github.com/dshills/keyroute/internal/input/leader"
)

// Router is the dispatch pipeline for one window/focus owner. It owns
// the global key-table stack and the leader state; the binding source,
// performer, surface and scheduler are injected collaborators.
//
// Dispatch is single-threaded and re-entrant-safe: exactly one event is
// processed to completion before the next is accepted, so the router
// does no locking. The only asynchronous element is the leader-expiry
// redraw posted through the Scheduler.
type Router struct {
	cfg       Config
	bindings  BindingSource
	performer Performer
	surface   Surface
	sched     Scheduler

	tables *keytable.State
	leader *leader.State
	modal  Modal

	trace *Trace
}

// Option configures a Router.
type Option func(*Router)

// WithClock injects a clock for the key-table and leader state.
// Used by tests for deterministic expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.tables = keytable.NewStateWithClock(now)
		r.leader = leader.NewStateWithClock(now)
	}
}

// NewRouter creates a router.
func NewRouter(cfg Config, bindings BindingSource, performer Performer, surface Surface, sched Scheduler, opts ...Option) *Router {
	r := &Router{
		cfg:       cfg,
		bindings:  bindings,
		performer: performer,
		surface:   surface,
		sched:     sched,
		tables:    keytable.NewState(),
		leader:    leader.NewState(),
		trace:     NewTrace(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// onlyKeyBindings marks a resolution pass as binding-only: physical and
// raw codes are not reliable literal text, so they never pass through.
type onlyKeyBindings bool

// DispatchPlatformEvent resolves a platform-level event, attempting in
// turn the physical-position code, the raw platform code, and (if
// distinct) the mapped code. Every pass is binding-only. Reports
// whether the event was handled.
func (r *Router) DispatchPlatformEvent(pane Pane, ev key.PlatformEvent) bool {
	leaderActive, leaderMod := r.leaderState()

	r.debugf("platform event key=%s mods=%s down=%v leader=%v",
		ev.Key, ev.Modifiers, ev.Down, leaderActive)

	// First, try to match the physical position.
	physKey, hasPhys := ev.PhysKey()
	if hasPhys {
		if r.processKey(pane, physKey, ev.Modifiers, leaderActive, leaderMod, true, ev.Down) {
			return true
		}
	}

	// Then the raw code.
	rawKey := ev.RawKey()
	if r.processKey(pane, rawKey, ev.Modifiers, leaderActive, leaderMod, true, ev.Down) {
		return true
	}

	// The mapped code, unless one of the above already was it.
	if (hasPhys && physKey == ev.Key) || rawKey == ev.Key {
		return false
	}
	return r.processKey(pane, ev.Key, ev.Modifiers, leaderActive, leaderMod, true, ev.Down)
}

// DispatchLogicalEvent resolves a logical-level event: one binding
// resolution attempt, then optional pass-through of the mapped form.
// Reports whether the event was handled.
func (r *Router) DispatchLogicalEvent(pane Pane, ev key.LogicalEvent) bool {
	leaderActive, leaderMod := r.leaderState()

	r.debugf("logical event key=%s mods=%s down=%v leader=%v",
		ev.Key, ev.Modifiers, ev.Down, leaderActive)

	if r.processKey(pane, ev.Key, ev.Modifiers, leaderActive, leaderMod, false, ev.Down) {
		return true
	}

	// Nothing matched any key table rule for any representation of this
	// keypress; dismiss transient until-unknown frames.
	if ev.Down {
		r.tables.PopUntilUnknown()
	}

	resolved := key.Resolve(ev.Key, r.cfg.SwapBackspaceDelete)
	switch resolved.Kind {
	case key.ResolvedKey:
		return r.deliverKey(pane, resolved.Key, ev, leaderActive)
	case key.ResolvedText:
		return r.deliverText(pane, resolved.Text, ev, leaderActive)
	default:
		// Unrepresentable: dropped. No action, no pass-through.
		return false
	}
}

// processKey runs one resolution attempt for a single code
// representation: leader activation, then key-table and default-table
// lookup, then (unless binding-only) compose-bypass direct delivery.
func (r *Router) processKey(pane Pane, code key.Code, mods key.Modifier, leaderActive bool, leaderMod key.Modifier, onlyBindings onlyKeyBindings, isDown bool) bool {
	if isDown && !leaderActive {
		// Check whether this key press activates the leader.
		if timeout, ok := r.bindings.IsLeader(code, mods); ok {
			deadline := r.leader.Activate(timeout)
			r.surface.UpdateTitle()
			// Schedule an invalidation so the status area repaints when
			// the leader expires, even though reconciliation is lazy.
			r.sched.At(deadline, r.surface.Invalidate)
			return true
		}
	}

	if isDown {
		if result, ok := r.lookupKey(code, mods.With(leaderMod)); ok {
			r.traceResolution(code, mods.With(leaderMod), result)

			r.tables.DidProcessKey()

			handled := true
			if !result.Action.IsNop() {
				outcome, err := r.performer.Perform(pane, result.Action)
				if err != nil {
					// Failures count as handled so a failing binding
					// cannot also fall through to literal delivery.
					r.debugf("action %q failed: %v", result.Action.Name, err)
				} else {
					handled = outcome == PerformHandled
				}
			}

			if handled {
				r.surface.Invalidate()
				if leaderActive {
					// A served binding consumes the leader modifier.
					r.leaderDone()
				}
				return true
			}
		}
	}

	// While the leader modifier is active, only registered keybindings
	// are recognized.
	if leaderActive {
		onlyBindings = true
	}

	if !bool(onlyBindings) && r.bypassCompose(mods) {
		resolved := key.Resolve(code, r.cfg.SwapBackspaceDelete)
		if resolved.Kind == key.ResolvedKey {
			termMods := mods.Normalized()
			r.debugf("send to pane key=%s mods=%s down=%v", resolved.Key, termMods, isDown)

			if r.modal != nil {
				if isDown {
					return r.modal.KeyDown(resolved.Key, termMods) == nil
				}
				return false
			}

			var err error
			if isDown {
				err = pane.KeyDown(resolved.Key, termMods)
			} else {
				err = pane.KeyUp(resolved.Key, termMods)
			}
			if err == nil {
				if isDown && !code.IsModifier() {
					r.surface.ScrollToBottom(pane)
				}
				r.surface.ClearCursorOverride()
				if !code.IsModifier() {
					r.surface.Invalidate()
				}
				return true
			}
		}
	}

	return false
}

// bypassCompose decides whether to skip text composition for this
// event. Platforms that distinguish left and right Alt get per-side
// configuration; otherwise the generic Alt setting applies.
func (r *Router) bypassCompose(mods key.Modifier) bool {
	if mods.Has(key.ModLeftAlt) && !r.cfg.ComposeWhenLeftAlt {
		return true
	}
	if mods.Has(key.ModRightAlt) && !r.cfg.ComposeWhenRightAlt {
		return true
	}
	return !mods.Has(key.ModLeftAlt) && !mods.Has(key.ModRightAlt) &&
		mods.Has(key.ModAlt) &&
		!(r.cfg.ComposeWhenLeftAlt || r.cfg.ComposeWhenRightAlt)
}

// lookupKey consults the modal overlay's table stack first, then the
// global stack, then the default unscoped table.
func (r *Router) lookupKey(code key.Code, mods key.Modifier) (keytable.Result, bool) {
	if r.modal != nil {
		if result, ok := r.modal.TableState().LookupKey(r.bindings, code, mods); ok {
			return result, true
		}
	}
	if result, ok := r.tables.LookupKey(r.bindings, code, mods); ok {
		return result, true
	}
	if action, ok := r.bindings.LookupKey(code, mods, keymap.DefaultTable); ok {
		return keytable.Result{Action: action}, true
	}
	return keytable.Result{}, false
}

// deliverKey passes a resolved single key through to the pane.
func (r *Router) deliverKey(pane Pane, code key.Code, ev key.LogicalEvent, leaderActive bool) bool {
	termMods := ev.Modifiers.Normalized()

	if ev.Down && !code.IsModifier() {
		if leaderActive {
			// The leader was pressed and this keypress is not a
			// registered binding: swallow it and consume the leader.
			r.leaderDone()
			return true
		}
		r.tables.DidProcessKey()
	}

	r.debugf("send to pane key=%s mods=%s down=%v", code, termMods, ev.Down)

	if r.modal != nil {
		if ev.Down {
			_ = r.modal.KeyDown(code, termMods)
			return true
		}
		return false
	}

	var err error
	if r.cfg.AllowCSIuEncoding && pane.Encoding() == key.EncodingCSIu {
		if encoded, ok := key.EncodeCSIu(code, ev.Modifiers, ev.Down); ok {
			_, err = pane.Writer().Write([]byte(encoded))
		} else if ev.Down {
			err = pane.KeyDown(code, termMods)
		} else {
			err = pane.KeyUp(code, termMods)
		}
	} else if ev.Down {
		err = pane.KeyDown(code, termMods)
	} else {
		err = pane.KeyUp(code, termMods)
	}

	if err != nil {
		// Single-key delivery aborts without further fallback.
		return false
	}

	if ev.Down && !code.IsModifier() && r.modal == nil {
		r.surface.ScrollToBottom(pane)
	}
	r.surface.ClearCursorOverride()
	if !code.IsModifier() {
		r.surface.Invalidate()
	}
	return true
}

// deliverText writes composed text to the pane as literal bytes.
// Key-up events carrying composed text are ignored.
func (r *Router) deliverText(pane Pane, text string, ev key.LogicalEvent, leaderActive bool) bool {
	if !ev.Down {
		return false
	}
	if leaderActive {
		r.leaderDone()
		return true
	}
	r.tables.DidProcessKey()

	r.debugf("send to pane text=%q", text)

	// Write errors for composed text are absorbed.
	_, _ = pane.Writer().Write([]byte(text))
	r.surface.ScrollToBottom(pane)
	r.surface.Invalidate()
	return true
}

// leaderState reconciles the leader lazily and returns the active flag
// plus the effective extra modifier bit.
func (r *Router) leaderState() (bool, key.Modifier) {
	active, expired := r.leader.IsActive()
	if active {
		if deadline, ok := r.leader.Deadline(); ok {
			r.surface.NextWake(deadline)
		}
		return true, key.ModLeader
	}
	if expired {
		// First observation after the deadline: tear down once.
		r.surface.UpdateTitle()
		r.surface.Invalidate()
	}
	return false, key.ModNone
}

// leaderDone clears the leader state and refreshes the display.
func (r *Router) leaderDone() {
	r.leader.Done()
	r.surface.UpdateTitle()
	r.surface.Invalidate()
}

// LeaderIsActive reports whether the leader modifier is active. As a
// side effect it records the next required wake time and performs lazy
// expiry teardown.
func (r *Router) LeaderIsActive() bool {
	active, _ := r.leaderState()
	return active
}

// CurrentTableName returns the active key table's name for status
// display, recording its expiry as the next required wake time.
func (r *Router) CurrentTableName() (string, bool) {
	name, ok := r.tables.CurrentTable()
	if expiry, has := r.tables.TopExpiration(); has {
		r.surface.NextWake(expiry)
	}
	return name, ok
}

// ActivateKeyTable pushes a key-table activation on the global stack.
func (r *Router) ActivateKeyTable(a keytable.Activation) {
	r.tables.Activate(a)
}

// PopKeyTable pops the top key table.
func (r *Router) PopKeyTable() {
	r.tables.Pop()
}

// ClearKeyTables clears the global key-table stack.
func (r *Router) ClearKeyTables() {
	r.tables.Clear()
}

// TableState exposes the global key-table stack.
func (r *Router) TableState() *keytable.State {
	return r.tables
}

// SetModal installs or removes (nil) the pane-level modal overlay.
func (r *Router) SetModal(m Modal) {
	r.modal = m
}

// Trace returns the debug trace buffer.
func (r *Router) Trace() *Trace {
	return r.trace
}
