package key

import (
	"fmt"
	"strings"
)

// Code is a canonical representation of a keypress. Exactly one of the
// concrete types below is carried per event: a printable character, a
// named key, a function key, a numeric-pad key, a physical position, a
// raw platform code, or composed text from an input method.
type Code interface {
	fmt.Stringer

	// IsModifier reports whether this code is a pure modifier key.
	IsModifier() bool

	isCode()
}

// Char is a printable character key.
type Char rune

func (c Char) isCode()          {}
func (c Char) IsModifier() bool { return false }

func (c Char) String() string {
	return string(rune(c))
}

// Function is a function key (F1 = Function(1)).
type Function uint8

func (f Function) isCode()          {}
func (f Function) IsModifier() bool { return false }

func (f Function) String() string {
	return fmt.Sprintf("F%d", uint8(f))
}

// Numpad is a numeric-pad digit key (Numpad(0) through Numpad(9)).
// Values outside 0-9 have no canonical terminal form.
type Numpad uint8

func (n Numpad) isCode()          {}
func (n Numpad) IsModifier() bool { return false }

func (n Numpad) String() string {
	return fmt.Sprintf("Numpad%d", uint8(n))
}

// Raw is an opaque platform key code with no canonical form.
type Raw uint32

func (r Raw) isCode()          {}
func (r Raw) IsModifier() bool { return false }

func (r Raw) String() string {
	return fmt.Sprintf("raw:%d", uint32(r))
}

// Composed is multi-character text produced by input-method composition.
// It is delivered to the pane as literal bytes, never matched positionally.
type Composed string

func (c Composed) isCode()          {}
func (c Composed) IsModifier() bool { return false }

func (c Composed) String() string {
	return string(c)
}

// Named identifies a non-character key by name.
type Named uint8

const (
	// NamedNone represents no key.
	NamedNone Named = iota

	NamedEnter
	NamedEscape
	NamedTab
	NamedBackspace
	NamedDelete
	NamedInsert
	NamedHome
	NamedEnd
	NamedPageUp
	NamedPageDown

	NamedLeftArrow
	NamedRightArrow
	NamedUpArrow
	NamedDownArrow
	NamedApplicationLeftArrow
	NamedApplicationRightArrow
	NamedApplicationUpArrow
	NamedApplicationDownArrow

	NamedShift
	NamedLeftShift
	NamedRightShift
	NamedControl
	NamedLeftControl
	NamedRightControl
	NamedAlt
	NamedLeftAlt
	NamedRightAlt
	NamedSuper
	NamedHyper
	NamedMeta
	NamedLeftWindows
	NamedRightWindows

	NamedCapsLock
	NamedNumLock
	NamedScrollLock
	NamedPause
	NamedPrintScreen
	NamedPrint
	NamedCancel
	NamedClear
	NamedSelect
	NamedExecute
	NamedHelp
	NamedSleep
	NamedApplications

	NamedMultiply
	NamedAdd
	NamedSeparator
	NamedSubtract
	NamedDecimal
	NamedDivide
	NamedNumpad0
	NamedNumpad1
	NamedNumpad2
	NamedNumpad3
	NamedNumpad4
	NamedNumpad5
	NamedNumpad6
	NamedNumpad7
	NamedNumpad8
	NamedNumpad9

	NamedCopy
	NamedCut
	NamedPaste

	NamedBrowserBack
	NamedBrowserForward
	NamedBrowserRefresh
	NamedBrowserStop
	NamedBrowserSearch
	NamedBrowserFavorites
	NamedBrowserHome

	NamedVolumeMute
	NamedVolumeDown
	NamedVolumeUp
	NamedMediaNextTrack
	NamedMediaPrevTrack
	NamedMediaStop
	NamedMediaPlayPause

	// NamedVoidSymbol is the platform "no key" sentinel. It never maps
	// to a canonical terminal key.
	NamedVoidSymbol
)

func (n Named) isCode() {}

// IsModifier reports whether this is a pure modifier key.
func (n Named) IsModifier() bool {
	switch n {
	case NamedShift, NamedLeftShift, NamedRightShift,
		NamedControl, NamedLeftControl, NamedRightControl,
		NamedAlt, NamedLeftAlt, NamedRightAlt,
		NamedSuper, NamedHyper, NamedMeta,
		NamedLeftWindows, NamedRightWindows:
		return true
	}
	return false
}

// namedNames is indexed by Named value.
var namedNames = [...]string{
	NamedNone:                  "None",
	NamedEnter:                 "Enter",
	NamedEscape:                "Escape",
	NamedTab:                   "Tab",
	NamedBackspace:             "Backspace",
	NamedDelete:                "Delete",
	NamedInsert:                "Insert",
	NamedHome:                  "Home",
	NamedEnd:                   "End",
	NamedPageUp:                "PageUp",
	NamedPageDown:              "PageDown",
	NamedLeftArrow:             "LeftArrow",
	NamedRightArrow:            "RightArrow",
	NamedUpArrow:               "UpArrow",
	NamedDownArrow:             "DownArrow",
	NamedApplicationLeftArrow:  "ApplicationLeftArrow",
	NamedApplicationRightArrow: "ApplicationRightArrow",
	NamedApplicationUpArrow:    "ApplicationUpArrow",
	NamedApplicationDownArrow:  "ApplicationDownArrow",
	NamedShift:                 "Shift",
	NamedLeftShift:             "LeftShift",
	NamedRightShift:            "RightShift",
	NamedControl:               "Control",
	NamedLeftControl:           "LeftControl",
	NamedRightControl:          "RightControl",
	NamedAlt:                   "Alt",
	NamedLeftAlt:               "LeftAlt",
	NamedRightAlt:              "RightAlt",
	NamedSuper:                 "Super",
	NamedHyper:                 "Hyper",
	NamedMeta:                  "Meta",
	NamedLeftWindows:           "LeftWindows",
	NamedRightWindows:          "RightWindows",
	NamedCapsLock:              "CapsLock",
	NamedNumLock:               "NumLock",
	NamedScrollLock:            "ScrollLock",
	NamedPause:                 "Pause",
	NamedPrintScreen:           "PrintScreen",
	NamedPrint:                 "Print",
	NamedCancel:                "Cancel",
	NamedClear:                 "Clear",
	NamedSelect:                "Select",
	NamedExecute:               "Execute",
	NamedHelp:                  "Help",
	NamedSleep:                 "Sleep",
	NamedApplications:          "Applications",
	NamedMultiply:              "Multiply",
	NamedAdd:                   "Add",
	NamedSeparator:             "Separator",
	NamedSubtract:              "Subtract",
	NamedDecimal:               "Decimal",
	NamedDivide:                "Divide",
	NamedNumpad0:               "Numpad0",
	NamedNumpad1:               "Numpad1",
	NamedNumpad2:               "Numpad2",
	NamedNumpad3:               "Numpad3",
	NamedNumpad4:               "Numpad4",
	NamedNumpad5:               "Numpad5",
	NamedNumpad6:               "Numpad6",
	NamedNumpad7:               "Numpad7",
	NamedNumpad8:               "Numpad8",
	NamedNumpad9:               "Numpad9",
	NamedCopy:                  "Copy",
	NamedCut:                   "Cut",
	NamedPaste:                 "Paste",
	NamedBrowserBack:           "BrowserBack",
	NamedBrowserForward:        "BrowserForward",
	NamedBrowserRefresh:        "BrowserRefresh",
	NamedBrowserStop:           "BrowserStop",
	NamedBrowserSearch:         "BrowserSearch",
	NamedBrowserFavorites:      "BrowserFavorites",
	NamedBrowserHome:           "BrowserHome",
	NamedVolumeMute:            "VolumeMute",
	NamedVolumeDown:            "VolumeDown",
	NamedVolumeUp:              "VolumeUp",
	NamedMediaNextTrack:        "MediaNextTrack",
	NamedMediaPrevTrack:        "MediaPrevTrack",
	NamedMediaStop:             "MediaStop",
	NamedMediaPlayPause:        "MediaPlayPause",
	NamedVoidSymbol:            "VoidSymbol",
}

func (n Named) String() string {
	if int(n) < len(namedNames) {
		return namedNames[n]
	}
	return fmt.Sprintf("Named(%d)", uint8(n))
}

// namedNameMap maps lowercase names to Named values, built from namedNames.
var namedNameMap = func() map[string]Named {
	m := make(map[string]Named, len(namedNames))
	for i, name := range namedNames {
		m[strings.ToLower(name)] = Named(i)
	}
	// Common aliases
	m["esc"] = NamedEscape
	m["return"] = NamedEnter
	m["bs"] = NamedBackspace
	m["del"] = NamedDelete
	m["ins"] = NamedInsert
	m["pgup"] = NamedPageUp
	m["pgdn"] = NamedPageDown
	m["left"] = NamedLeftArrow
	m["right"] = NamedRightArrow
	m["up"] = NamedUpArrow
	m["down"] = NamedDownArrow
	return m
}()

// NamedFromName returns the Named key for a given name (case-insensitive).
// Returns NamedNone if the name is not recognized.
func NamedFromName(name string) Named {
	if n, ok := namedNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return n
	}
	return NamedNone
}

// ParseCode parses a config key specification into a Code. A single rune
// is a character key, "F1".."F24" a function key, and anything else is
// looked up as a named key.
func ParseCode(spec string) (Code, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty key specification")
	}

	runes := []rune(spec)
	if len(runes) == 1 {
		return Char(runes[0]), nil
	}

	if (spec[0] == 'F' || spec[0] == 'f') && len(spec) <= 3 {
		var n int
		if _, err := fmt.Sscanf(spec[1:], "%d", &n); err == nil && n >= 1 && n <= 24 {
			return Function(n), nil
		}
	}

	if n := NamedFromName(spec); n != NamedNone {
		return n, nil
	}
	return nil, fmt.Errorf("unknown key %q", spec)
}
