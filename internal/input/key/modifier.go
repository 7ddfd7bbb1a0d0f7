package key

import "strings"

// Modifier represents keyboard modifier keys as a bitset.
//
// LeftAlt and RightAlt are reported only by platforms that distinguish
// the two sides; most report the generic Alt bit instead. Leader is a
// virtual modifier synthesized by the dispatcher while the leader key
// is active; it is never reported by a platform.
type Modifier uint16

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates a generic Alt key (Option on macOS).
	ModAlt

	// ModLeftAlt indicates the left Alt key specifically.
	ModLeftAlt

	// ModRightAlt indicates the right Alt key (AltGr on many layouts).
	ModRightAlt

	// ModSuper indicates the Super key (Cmd on macOS, Win on Windows).
	ModSuper

	// ModLeader indicates the virtual leader modifier.
	ModLeader
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// Normalized converts window-side modifiers into the form delivered to a
// terminal pane. Either Alt side collapses to the generic Alt bit, except
// RightAlt which is dropped entirely: it is carried through dispatch only
// so AltGr composition can be detected, and must not encode as regular Alt.
func (m Modifier) Normalized() Modifier {
	var result Modifier
	if m.Has(ModShift) {
		result = result.With(ModShift)
	}
	if m.Has(ModLeftAlt) || m.Has(ModAlt) {
		result = result.With(ModAlt)
	}
	if m.Has(ModCtrl) {
		result = result.With(ModCtrl)
	}
	if m.Has(ModSuper) {
		result = result.With(ModSuper)
	}
	if m.Has(ModLeader) {
		result = result.With(ModLeader)
	}
	return result
}

// String returns a config-style representation like "CTRL|SHIFT".
func (m Modifier) String() string {
	if m == ModNone {
		return "NONE"
	}

	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "CTRL")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "ALT")
	}
	if m.Has(ModLeftAlt) {
		parts = append(parts, "LEFT_ALT")
	}
	if m.Has(ModRightAlt) {
		parts = append(parts, "RIGHT_ALT")
	}
	if m.Has(ModShift) {
		parts = append(parts, "SHIFT")
	}
	if m.Has(ModSuper) {
		parts = append(parts, "SUPER")
	}
	if m.Has(ModLeader) {
		parts = append(parts, "LEADER")
	}
	return strings.Join(parts, "|")
}

// modifierNameMap maps modifier names (lowercase) to Modifier values.
var modifierNameMap = map[string]Modifier{
	"none":      ModNone,
	"ctrl":      ModCtrl,
	"control":   ModCtrl,
	"c":         ModCtrl,
	"alt":       ModAlt,
	"a":         ModAlt,
	"option":    ModAlt,
	"opt":       ModAlt,
	"left_alt":  ModLeftAlt,
	"leftalt":   ModLeftAlt,
	"right_alt": ModRightAlt,
	"rightalt":  ModRightAlt,
	"altgr":     ModRightAlt,
	"shift":     ModShift,
	"s":         ModShift,
	"super":     ModSuper,
	"cmd":       ModSuper,
	"command":   ModSuper,
	"win":       ModSuper,
	"meta":      ModSuper,
	"leader":    ModLeader,
}

// ModifierFromName returns the Modifier for a given name (case-insensitive).
// Returns ModNone if the name is not recognized.
func ModifierFromName(name string) Modifier {
	if m, ok := modifierNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m
	}
	return ModNone
}

// ParseModifiers parses a modifier string like "CTRL|SHIFT" or "Ctrl+Shift".
// Unrecognized names are ignored.
func ParseModifiers(s string) Modifier {
	var parts []string
	switch {
	case strings.Contains(s, "|"):
		parts = strings.Split(s, "|")
	case strings.Contains(s, "+"):
		parts = strings.Split(s, "+")
	default:
		parts = []string{s}
	}

	var result Modifier
	for _, part := range parts {
		result = result.With(ModifierFromName(part))
	}
	return result
}
