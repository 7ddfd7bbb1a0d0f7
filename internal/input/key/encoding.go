package key

import "fmt"

// Encoding identifies the input encoding a pane expects.
type Encoding uint8

const (
	// EncodingDefault is conventional terminal input encoding, delivered
	// through the pane's KeyDown/KeyUp interface.
	EncodingDefault Encoding = iota

	// EncodingCSIu requests CSI u (kitty keyboard protocol) encoded
	// input written directly to the pane's byte sink. Key-up events are
	// representable in this mode.
	EncodingCSIu
)

// csiuMods converts a modifier bitset to the CSI u modifier parameter,
// which is the protocol bitmask plus one.
func csiuMods(mods Modifier) int {
	m := mods.Normalized()
	v := 0
	if m.Has(ModShift) {
		v |= 1
	}
	if m.Has(ModAlt) {
		v |= 2
	}
	if m.Has(ModCtrl) {
		v |= 4
	}
	if m.Has(ModSuper) {
		v |= 8
	}
	return v + 1
}

// csiuCodepoint returns the Unicode codepoint CSI u uses for a code.
func csiuCodepoint(c Code) (int, bool) {
	switch v := c.(type) {
	case Char:
		return int(rune(v)), true
	case Named:
		switch v {
		case NamedEnter:
			return 13, true
		case NamedTab:
			return 9, true
		case NamedBackspace:
			return 127, true
		case NamedEscape:
			return 27, true
		}
	}
	return 0, false
}

// EncodeCSIu encodes a key event in CSI u form. Returns false when the
// code has no CSI u representation; the caller falls back to the
// conventional KeyDown/KeyUp path.
func EncodeCSIu(c Code, mods Modifier, down bool) (string, bool) {
	cp, ok := csiuCodepoint(c)
	if !ok {
		return "", false
	}
	if down {
		return fmt.Sprintf("\x1b[%d;%du", cp, csiuMods(mods)), true
	}
	// Event type 3 marks a release.
	return fmt.Sprintf("\x1b[%d;%d:3u", cp, csiuMods(mods)), true
}
