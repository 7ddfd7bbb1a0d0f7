package key

import "fmt"

// Pos identifies a physical key position on a standard layout,
// independent of the active keyboard mapping.
type Pos uint8

const (
	// PosNone represents no position.
	PosNone Pos = iota

	PosA
	PosB
	PosC
	PosD
	PosE
	PosF
	PosG
	PosH
	PosI
	PosJ
	PosK
	PosL
	PosM
	PosN
	PosO
	PosP
	PosQ
	PosR
	PosS
	PosT
	PosU
	PosV
	PosW
	PosX
	PosY
	PosZ

	Pos0
	Pos1
	Pos2
	Pos3
	Pos4
	Pos5
	Pos6
	Pos7
	Pos8
	Pos9

	PosEscape
	PosEnter
	PosTab
	PosSpace
	PosBackspace
	PosMinus
	PosEquals
	PosLeftBracket
	PosRightBracket
	PosBackslash
	PosSemicolon
	PosQuote
	PosGrave
	PosComma
	PosPeriod
	PosSlash

	PosLeftShift
	PosRightShift
	PosLeftControl
	PosRightControl
	PosLeftAlt
	PosRightAlt
)

// Physical is a key identified by physical position rather than by the
// character the active layout maps it to.
type Physical struct {
	Pos Pos
}

func (p Physical) isCode() {}

// IsModifier reports whether this position is a pure modifier key.
func (p Physical) IsModifier() bool {
	switch p.Pos {
	case PosLeftShift, PosRightShift, PosLeftControl, PosRightControl,
		PosLeftAlt, PosRightAlt:
		return true
	}
	return false
}

func (p Physical) String() string {
	return "phys:" + p.ToCode().String()
}

// ToCode returns the canonical code for this position under a US layout.
// Used when a physical binding falls through to mapped resolution.
func (p Physical) ToCode() Code {
	switch {
	case p.Pos >= PosA && p.Pos <= PosZ:
		return Char('a' + rune(p.Pos-PosA))
	case p.Pos >= Pos0 && p.Pos <= Pos9:
		return Char('0' + rune(p.Pos-Pos0))
	}

	switch p.Pos {
	case PosEscape:
		return NamedEscape
	case PosEnter:
		return NamedEnter
	case PosTab:
		return NamedTab
	case PosSpace:
		return Char(' ')
	case PosBackspace:
		return NamedBackspace
	case PosMinus:
		return Char('-')
	case PosEquals:
		return Char('=')
	case PosLeftBracket:
		return Char('[')
	case PosRightBracket:
		return Char(']')
	case PosBackslash:
		return Char('\\')
	case PosSemicolon:
		return Char(';')
	case PosQuote:
		return Char('\'')
	case PosGrave:
		return Char('`')
	case PosComma:
		return Char(',')
	case PosPeriod:
		return Char('.')
	case PosSlash:
		return Char('/')
	case PosLeftShift:
		return NamedLeftShift
	case PosRightShift:
		return NamedRightShift
	case PosLeftControl:
		return NamedLeftControl
	case PosRightControl:
		return NamedRightControl
	case PosLeftAlt:
		return NamedLeftAlt
	case PosRightAlt:
		return NamedRightAlt
	default:
		return NamedVoidSymbol
	}
}

// PosFromCode returns the US-layout position producing the given code.
// Returns PosNone when the code has no single position.
func PosFromCode(c Code) Pos {
	switch v := c.(type) {
	case Char:
		r := rune(v)
		switch {
		case r >= 'a' && r <= 'z':
			return PosA + Pos(r-'a')
		case r >= 'A' && r <= 'Z':
			return PosA + Pos(r-'A')
		case r >= '0' && r <= '9':
			return Pos0 + Pos(r-'0')
		case r == ' ':
			return PosSpace
		}
	case Named:
		switch v {
		case NamedEscape:
			return PosEscape
		case NamedEnter:
			return PosEnter
		case NamedTab:
			return PosTab
		case NamedBackspace:
			return PosBackspace
		}
	}
	return PosNone
}

// GoString implements fmt.GoStringer for debugging.
func (p Physical) GoString() string {
	return fmt.Sprintf("Physical{Pos: %d}", p.Pos)
}
