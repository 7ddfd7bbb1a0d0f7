package key

// ResolvedKind classifies the outcome of terminal resolution.
type ResolvedKind uint8

const (
	// ResolvedNone means the code has no terminal representation and the
	// event must be dropped: no action, no pass-through.
	ResolvedNone ResolvedKind = iota

	// ResolvedKey means the code resolved to a single canonical key.
	ResolvedKey

	// ResolvedText means the code resolved to composed text delivered as
	// literal bytes.
	ResolvedText
)

// Resolved is the outcome of translating a platform code for delivery to
// a terminal pane.
type Resolved struct {
	Kind ResolvedKind

	// Key is valid when Kind is ResolvedKey.
	Key Code

	// Text is valid when Kind is ResolvedText.
	Text string
}

// Resolve maps a platform code to its terminal form. It is a pure
// function: same inputs, same outputs, no dispatch state.
//
// Control characters that platforms report as Char fold into their named
// keys; backspace and delete honor the swap flag. Raw codes and the void
// sentinel are unrepresentable. Composed text of exactly one character
// collapses back to a Char resolution.
func Resolve(c Code, swapBackspaceDelete bool) Resolved {
	switch v := c.(type) {
	case Char:
		switch rune(v) {
		case '\r':
			return Resolved{Kind: ResolvedKey, Key: NamedEnter}
		case '\t':
			return Resolved{Kind: ResolvedKey, Key: NamedTab}
		case '\b':
			if swapBackspaceDelete {
				return Resolved{Kind: ResolvedKey, Key: NamedDelete}
			}
			return Resolved{Kind: ResolvedKey, Key: NamedBackspace}
		case '\u007f':
			if swapBackspaceDelete {
				return Resolved{Kind: ResolvedKey, Key: NamedBackspace}
			}
			return Resolved{Kind: ResolvedKey, Key: NamedDelete}
		case '\u001b':
			return Resolved{Kind: ResolvedKey, Key: NamedEscape}
		}
		return Resolved{Kind: ResolvedKey, Key: v}

	case Raw:
		return Resolved{Kind: ResolvedNone}

	case Physical:
		return Resolve(v.ToCode(), swapBackspaceDelete)

	case Composed:
		runes := []rune(string(v))
		if len(runes) == 1 {
			// Was just a single char after all
			return Resolve(Char(runes[0]), swapBackspaceDelete)
		}
		return Resolved{Kind: ResolvedText, Text: string(v)}

	case Function:
		return Resolved{Kind: ResolvedKey, Key: v}

	case Numpad:
		if v <= 9 {
			return Resolved{Kind: ResolvedKey, Key: NamedNumpad0 + Named(v)}
		}
		return Resolved{Kind: ResolvedNone}

	case Named:
		if v == NamedVoidSymbol || v == NamedNone {
			return Resolved{Kind: ResolvedNone}
		}
		return Resolved{Kind: ResolvedKey, Key: v}
	}

	return Resolved{Kind: ResolvedNone}
}
