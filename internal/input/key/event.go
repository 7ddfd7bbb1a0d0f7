package key

// PlatformEvent is a key event as delivered by the windowing platform,
// before text composition. It may carry up to three representations of
// the same keypress: the mapped code, a physical position, and the raw
// platform code.
type PlatformEvent struct {
	// Key is the platform's mapped code for the event.
	Key Code

	// PhysCode is the physical position, when the platform reports one.
	PhysCode Physical

	// HasPhys indicates whether PhysCode is meaningful.
	HasPhys bool

	// Raw is the raw platform key code.
	Raw uint32

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Down is true for key-down, false for key-up.
	Down bool
}

// PhysKey returns the physical-position representation of the event:
// the event's own code if it is already physical, else the reported
// physical position.
func (e PlatformEvent) PhysKey() (Code, bool) {
	if phys, ok := e.Key.(Physical); ok {
		return phys, true
	}
	if e.HasPhys {
		return e.PhysCode, true
	}
	return nil, false
}

// RawKey returns the raw-code representation of the event.
func (e PlatformEvent) RawKey() Code {
	if raw, ok := e.Key.(Raw); ok {
		return raw
	}
	return Raw(e.Raw)
}

// LogicalEvent is a key event after platform text composition: a single
// canonical or composed representation plus modifiers.
type LogicalEvent struct {
	// Key identifies the key pressed.
	Key Code

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Down is true for key-down, false for key-up.
	Down bool
}
