package keymap

// Action is the application command a binding resolves to.
// Execution is owned by the embedding application; this package only
// carries the name and arguments through dispatch.
type Action struct {
	// Name is the command identifier, e.g. "pane.scroll_up",
	// "copy_mode.activate", "window.spawn_tab".
	Name string

	// Args are fixed arguments for the command.
	Args map[string]any
}

// NopName is the name of the synthetic no-op action.
const NopName = "nop"

// Nop returns the no-op action. It is synthesized when a
// prevent-fallback table swallows an unmatched key: the event counts as
// handled but performs nothing.
func Nop() Action {
	return Action{Name: NopName}
}

// IsNop reports whether the action is the synthetic no-op.
func (a Action) IsNop() bool {
	return a.Name == NopName
}
