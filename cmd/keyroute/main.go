// Package main is an interactive demo for the keyroute dispatch
// pipeline. It loads a keymap configuration, translates terminal key
// events into logical events, and shows how each keypress resolves:
// action, table switch, leader chord, or literal pass-through.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyroute/internal/input/dispatch"
	"github.com/dshills/keyroute/internal/input/key"
	"github.com/dshills/keyroute/internal/input/keymap"
	"github.com/dshills/keyroute/internal/input/keytable"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	registry, err := loadRegistry(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to init screen: %v\n", err)
		return 1
	}
	defer screen.Fini()

	app := newDemo(screen, registry, opts.debug)
	app.loop()
	return 0
}

type options struct {
	configPath string
	luaPath    string
	debug      bool
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "Path to JSON keymap file")
	flag.StringVar(&opts.configPath, "c", "", "Path to JSON keymap file (shorthand)")
	flag.StringVar(&opts.luaPath, "lua", "", "Path to Lua keymap file")
	flag.BoolVar(&opts.debug, "debug", false, "Enable key event debugging")
	flag.BoolVar(&opts.debug, "d", false, "Enable key event debugging (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "keyroute - key dispatch demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: keyroute [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nPress Ctrl+Q to quit.\n")
	}
	flag.Parse()

	return opts
}

// loadRegistry layers the user keymap over the built-in defaults.
func loadRegistry(opts options) (*keymap.Registry, error) {
	registry := keymap.Defaults()
	registry.Bind(keymap.DefaultTable, key.Char('q'), key.ModCtrl, keymap.Action{Name: "quit"})

	switch {
	case opts.luaPath != "":
		user, err := keymap.LoadLuaFile(opts.luaPath)
		if err != nil {
			return nil, err
		}
		registry.Merge(user)
	case opts.configPath != "":
		user, err := keymap.LoadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		registry.Merge(user)
	}
	return registry, nil
}

// demo is the event loop plus the Pane, Performer, Surface and
// Scheduler collaborators, all backed by one tcell screen.
type demo struct {
	screen tcell.Screen
	router *dispatch.Router

	lines []string
	dirty bool
	quit  bool
}

func newDemo(screen tcell.Screen, registry *keymap.Registry, debug bool) *demo {
	d := &demo{screen: screen, dirty: true}
	cfg := dispatch.Config{DebugKeyEvents: debug}
	d.router = dispatch.NewRouter(cfg, registry, d, d, d)
	return d
}

func (d *demo) loop() {
	for !d.quit {
		if d.dirty {
			d.draw()
			d.dirty = false
		}

		switch ev := d.screen.PollEvent().(type) {
		case *tcell.EventKey:
			d.router.DispatchLogicalEvent(d, translateKey(ev))
		case *tcell.EventResize:
			d.screen.Sync()
			d.dirty = true
		case *tcell.EventInterrupt:
			// Deferred tasks posted by the Scheduler run on the
			// dispatch goroutine.
			if fn, ok := ev.Data().(func()); ok {
				fn()
			}
		case nil:
			return
		}
	}
}

func (d *demo) draw() {
	d.screen.Clear()
	width, height := d.screen.Size()

	status := "table: <default>"
	if name, ok := d.router.CurrentTableName(); ok {
		status = "table: " + name
	}
	if d.router.LeaderIsActive() {
		status += "  LEADER"
	}
	drawText(d.screen, 0, 0, width, tcell.StyleDefault.Reverse(true), status)

	visible := d.lines
	if max := height - 2; max > 0 && len(visible) > max {
		visible = visible[len(visible)-max:]
	}
	for i, line := range visible {
		drawText(d.screen, 0, i+1, width, tcell.StyleDefault, line)
	}
	d.screen.Show()
}

func drawText(s tcell.Screen, x, y, width int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		if col >= width {
			break
		}
		s.SetContent(col, y, r, nil, style)
		col++
	}
}

func (d *demo) echo(line string) {
	d.lines = append(d.lines, line)
	d.dirty = true
}

// Pane.

func (d *demo) ID() int { return 1 }

func (d *demo) KeyDown(code key.Code, mods key.Modifier) error {
	if mods.IsEmpty() {
		d.echo(fmt.Sprintf("key  %s", code))
	} else {
		d.echo(fmt.Sprintf("key  %s+%s", mods, code))
	}
	return nil
}

func (d *demo) KeyUp(key.Code, key.Modifier) error { return nil }

func (d *demo) Writer() io.Writer { return paneWriter{d} }

func (d *demo) Encoding() key.Encoding { return key.EncodingDefault }

type paneWriter struct {
	d *demo
}

func (w paneWriter) Write(p []byte) (int, error) {
	w.d.echo(fmt.Sprintf("text %q", p))
	return len(p), nil
}

// Performer.

func (d *demo) Perform(_ dispatch.Pane, action keymap.Action) (dispatch.PerformResult, error) {
	switch action.Name {
	case "quit":
		d.quit = true
	case "activate_key_table":
		d.router.ActivateKeyTable(activationFromArgs(action.Args))
	case "pop_key_table":
		d.router.PopKeyTable()
	case "clear_key_tables":
		d.router.ClearKeyTables()
	default:
		d.echo("act  " + action.Name + formatArgs(action.Args))
	}
	d.dirty = true
	return dispatch.PerformHandled, nil
}

func activationFromArgs(args map[string]any) keytable.Activation {
	a := keytable.Activation{}
	if name, ok := args["name"].(string); ok {
		a.Name = name
	}
	if ms, ok := args["timeout_ms"].(float64); ok && ms > 0 {
		a.Timeout = time.Duration(ms) * time.Millisecond
	}
	if v, ok := args["one_shot"].(bool); ok {
		a.OneShot = v
	}
	if v, ok := args["until_unknown"].(bool); ok {
		a.UntilUnknown = v
	}
	if v, ok := args["prevent_fallback"].(bool); ok {
		a.PreventFallback = v
	}
	if v, ok := args["replace_current"].(bool); ok {
		a.ReplaceCurrent = v
	}
	return a
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(args))
	for k, v := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " {" + strings.Join(parts, " ") + "}"
}

// Surface.

func (d *demo) Invalidate()          { d.dirty = true }
func (d *demo) ClearCursorOverride() {}
func (d *demo) UpdateTitle()         { d.dirty = true }
func (d *demo) NextWake(time.Time)   {}

func (d *demo) ScrollToBottom(dispatch.Pane) {}

// Scheduler. Tasks are posted back to the event loop so dispatch stays
// single-threaded.
func (d *demo) At(t time.Time, fn func()) {
	wrapped := func() {
		_ = d.screen.PostEvent(tcell.NewEventInterrupt(fn))
	}
	delay := time.Until(t)
	if delay <= 0 {
		wrapped()
		return
	}
	time.AfterFunc(delay, wrapped)
}

// translateKey converts a tcell key event to a logical key event.
func translateKey(ev *tcell.EventKey) key.LogicalEvent {
	mods := translateMods(ev.Modifiers())

	var code key.Code
	switch k := ev.Key(); {
	case k == tcell.KeyRune:
		code = key.Char(ev.Rune())
	// Tab, Enter and Backspace live inside tcell's Ctrl+letter range;
	// match them before recovering Ctrl chords.
	case k == tcell.KeyTab:
		code = key.NamedTab
	case k == tcell.KeyEnter:
		code = key.NamedEnter
	case k == tcell.KeyBackspace:
		code = key.NamedBackspace
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		// tcell folds Ctrl+letter into a control key; recover the
		// letter so bindings can name it.
		code = key.Char(rune('a' + k - tcell.KeyCtrlA))
		mods = mods.With(key.ModCtrl)
	default:
		code = translateNamed(k)
	}

	// tcell reports presses only.
	return key.LogicalEvent{Key: code, Modifiers: mods, Down: true}
}

func translateMods(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModSuper)
	}
	return mods
}

func translateNamed(k tcell.Key) key.Code {
	if k >= tcell.KeyF1 && k <= tcell.KeyF64 {
		n := uint8(k - tcell.KeyF1 + 1)
		if n <= 24 {
			return key.Function(n)
		}
		return key.NamedVoidSymbol
	}

	switch k {
	case tcell.KeyEnter:
		return key.NamedEnter
	case tcell.KeyTab:
		return key.NamedTab
	case tcell.KeyBacktab:
		return key.NamedTab
	case tcell.KeyEscape:
		return key.NamedEscape
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.NamedBackspace
	case tcell.KeyDelete:
		return key.NamedDelete
	case tcell.KeyInsert:
		return key.NamedInsert
	case tcell.KeyUp:
		return key.NamedUpArrow
	case tcell.KeyDown:
		return key.NamedDownArrow
	case tcell.KeyLeft:
		return key.NamedLeftArrow
	case tcell.KeyRight:
		return key.NamedRightArrow
	case tcell.KeyHome:
		return key.NamedHome
	case tcell.KeyEnd:
		return key.NamedEnd
	case tcell.KeyPgUp:
		return key.NamedPageUp
	case tcell.KeyPgDn:
		return key.NamedPageDown
	default:
		return key.NamedVoidSymbol
	}
}
