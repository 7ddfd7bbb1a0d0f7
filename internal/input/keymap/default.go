package keymap

import (
	"time"

	"github.com/dshills/keyroute/internal/input/key"
)

// Defaults returns a registry with the stock bindings: clipboard and
// scrollback on the default table, plus a copy_mode key table. Embedding
// applications typically Merge user configuration over this.
func Defaults() *Registry {
	reg := NewRegistry()

	reg.Bind(DefaultTable, key.Char('c'), key.ModCtrl|key.ModShift, Action{Name: "clipboard.copy"})
	reg.Bind(DefaultTable, key.Char('v'), key.ModCtrl|key.ModShift, Action{Name: "clipboard.paste"})
	reg.Bind(DefaultTable, key.Char('x'), key.ModCtrl|key.ModShift, Action{Name: "copy_mode.activate"})
	reg.Bind(DefaultTable, key.NamedPageUp, key.ModShift, Action{Name: "pane.scroll_page_up"})
	reg.Bind(DefaultTable, key.NamedPageDown, key.ModShift, Action{Name: "pane.scroll_page_down"})

	reg.Bind("copy_mode", key.Char('h'), key.ModNone, Action{Name: "copy_mode.left"})
	reg.Bind("copy_mode", key.Char('j'), key.ModNone, Action{Name: "copy_mode.down"})
	reg.Bind("copy_mode", key.Char('k'), key.ModNone, Action{Name: "copy_mode.up"})
	reg.Bind("copy_mode", key.Char('l'), key.ModNone, Action{Name: "copy_mode.right"})
	reg.Bind("copy_mode", key.Char('y'), key.ModNone, Action{Name: "copy_mode.copy_selection"})
	reg.Bind("copy_mode", key.NamedEscape, key.ModNone, Action{Name: "copy_mode.close"})

	reg.SetLeader(key.Char('a'), key.ModCtrl, 1000*time.Millisecond)

	return reg
}
