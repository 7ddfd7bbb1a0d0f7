package dispatch

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dshills/keyroute/internal/input/key"
	"github.com/dshills/keyroute/internal/input/keymap"
	"github.com/dshills/keyroute/internal/input/keytable"
)

type fakeClock struct {
	t time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type paneKey struct {
	code key.Code
	mods key.Modifier
}

type fakePane struct {
	downs  []paneKey
	ups    []paneKey
	buf    bytes.Buffer
	enc    key.Encoding
	keyErr error
}

func (p *fakePane) ID() int { return 1 }

func (p *fakePane) KeyDown(code key.Code, mods key.Modifier) error {
	if p.keyErr != nil {
		return p.keyErr
	}
	p.downs = append(p.downs, paneKey{code, mods})
	return nil
}

func (p *fakePane) KeyUp(code key.Code, mods key.Modifier) error {
	if p.keyErr != nil {
		return p.keyErr
	}
	p.ups = append(p.ups, paneKey{code, mods})
	return nil
}

func (p *fakePane) Writer() io.Writer      { return &p.buf }
func (p *fakePane) Encoding() key.Encoding { return p.enc }

type fakeSurface struct {
	invalidations int
	titleUpdates  int
	cursorClears  int
	scrolls       int
	wakes         []time.Time
}

func (s *fakeSurface) Invalidate()           { s.invalidations++ }
func (s *fakeSurface) ClearCursorOverride()  { s.cursorClears++ }
func (s *fakeSurface) UpdateTitle()          { s.titleUpdates++ }
func (s *fakeSurface) NextWake(at time.Time) { s.wakes = append(s.wakes, at) }
func (s *fakeSurface) ScrollToBottom(Pane)   { s.scrolls++ }

type schedTask struct {
	at time.Time
	fn func()
}

type fakeSched struct {
	tasks []schedTask
}

func (s *fakeSched) At(t time.Time, fn func()) {
	s.tasks = append(s.tasks, schedTask{t, fn})
}

type fakePerformer struct {
	performed []keymap.Action
	result    PerformResult
	err       error
}

func (p *fakePerformer) Perform(_ Pane, action keymap.Action) (PerformResult, error) {
	p.performed = append(p.performed, action)
	return p.result, p.err
}

type fakeModal struct {
	state *keytable.State
	downs []paneKey
}

func (m *fakeModal) TableState() *keytable.State { return m.state }

func (m *fakeModal) KeyDown(code key.Code, mods key.Modifier) error {
	m.downs = append(m.downs, paneKey{code, mods})
	return nil
}

type harness struct {
	router    *Router
	reg       *keymap.Registry
	pane      *fakePane
	surface   *fakeSurface
	sched     *fakeSched
	performer *fakePerformer
	clock     *fakeClock
}

func newHarness(cfg Config) *harness {
	h := &harness{
		reg:       keymap.NewRegistry(),
		pane:      &fakePane{},
		surface:   &fakeSurface{},
		sched:     &fakeSched{},
		performer: &fakePerformer{result: PerformHandled},
		clock:     newClock(),
	}
	h.router = NewRouter(cfg, h.reg, h.performer, h.surface, h.sched, WithClock(h.clock.Now))
	return h
}

func down(c key.Code, mods key.Modifier) key.LogicalEvent {
	return key.LogicalEvent{Key: c, Modifiers: mods, Down: true}
}

func up(c key.Code, mods key.Modifier) key.LogicalEvent {
	return key.LogicalEvent{Key: c, Modifiers: mods, Down: false}
}

func TestDefaultTableDispatch(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Bind(keymap.DefaultTable, key.Char('c'), key.ModCtrl|key.ModShift, keymap.Action{Name: "copy"})

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('c'), key.ModCtrl|key.ModShift)) {
		t.Fatal("bound key reported unhandled")
	}
	if len(h.performer.performed) != 1 || h.performer.performed[0].Name != "copy" {
		t.Errorf("performed = %+v, want [copy]", h.performer.performed)
	}
	if len(h.pane.downs) != 0 {
		t.Error("bound key must not also reach the pane")
	}
	if h.surface.invalidations == 0 {
		t.Error("handled binding should invalidate the surface")
	}
}

func TestUnboundKeyPassesThrough(t *testing.T) {
	h := newHarness(Config{})

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('x'), key.ModNone)) {
		t.Fatal("pass-through reported unhandled")
	}
	if len(h.pane.downs) != 1 || h.pane.downs[0].code != key.Char('x') {
		t.Errorf("pane downs = %+v, want x", h.pane.downs)
	}
	if len(h.performer.performed) != 0 {
		t.Errorf("performed = %+v, want none", h.performer.performed)
	}
	if h.surface.scrolls != 1 {
		t.Errorf("scrolls = %d, want 1 on key input", h.surface.scrolls)
	}

	if !h.router.DispatchLogicalEvent(h.pane, up(key.Char('x'), key.ModNone)) {
		t.Fatal("key-up pass-through reported unhandled")
	}
	if len(h.pane.ups) != 1 {
		t.Errorf("pane ups = %+v, want one release", h.pane.ups)
	}
}

func TestModifierOnlyKeyDoesNotScroll(t *testing.T) {
	h := newHarness(Config{})

	h.router.DispatchLogicalEvent(h.pane, down(key.NamedLeftShift, key.ModShift))
	if h.surface.scrolls != 0 {
		t.Errorf("scrolls = %d, want 0 for bare modifier", h.surface.scrolls)
	}
	if h.surface.invalidations != 0 {
		t.Errorf("invalidations = %d, want 0 for bare modifier", h.surface.invalidations)
	}
}

func TestLeaderActivation(t *testing.T) {
	h := newHarness(Config{})
	h.reg.SetLeader(key.Char('a'), key.ModCtrl, time.Second)

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('a'), key.ModCtrl)) {
		t.Fatal("leader press reported unhandled")
	}
	if len(h.performer.performed) != 0 {
		t.Error("leader activation must not perform an action")
	}
	if len(h.pane.downs) != 0 {
		t.Error("leader press must not reach the pane")
	}
	if !h.router.LeaderIsActive() {
		t.Error("LeaderIsActive() = false after activation")
	}
	if h.surface.titleUpdates == 0 {
		t.Error("activation should refresh the title")
	}

	wantDeadline := h.clock.Now().Add(time.Second)
	if len(h.sched.tasks) != 1 || !h.sched.tasks[0].at.Equal(wantDeadline) {
		t.Errorf("scheduled tasks = %+v, want one at %v", h.sched.tasks, wantDeadline)
	}
}

func TestLeaderBindingConsumesLeader(t *testing.T) {
	h := newHarness(Config{})
	h.reg.SetLeader(key.Char('a'), key.ModCtrl, time.Second)
	h.reg.Bind(keymap.DefaultTable, key.Char('t'), key.ModLeader, keymap.Action{Name: "spawn_tab"})

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('a'), key.ModCtrl))

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('t'), key.ModNone)) {
		t.Fatal("leader-bound key reported unhandled")
	}
	if len(h.performer.performed) != 1 || h.performer.performed[0].Name != "spawn_tab" {
		t.Errorf("performed = %+v, want [spawn_tab]", h.performer.performed)
	}
	if h.router.LeaderIsActive() {
		t.Error("leader must be consumed by a served binding")
	}
}

func TestLeaderSwallowsUnmatchedKey(t *testing.T) {
	h := newHarness(Config{})
	h.reg.SetLeader(key.Char('a'), key.ModCtrl, time.Second)

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('a'), key.ModCtrl))

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('z'), key.ModNone)) {
		t.Fatal("swallowed key must still count as handled")
	}
	if len(h.pane.downs) != 0 || h.pane.buf.Len() != 0 {
		t.Error("unmatched key under leader must not reach the pane")
	}
	if h.router.LeaderIsActive() {
		t.Error("leader must be consumed by the swallowed key")
	}
}

func TestLeaderExpiryTearsDownOnce(t *testing.T) {
	h := newHarness(Config{})
	h.reg.SetLeader(key.Char('a'), key.ModCtrl, time.Second)

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('a'), key.ModCtrl))
	titleAfterActivate := h.surface.titleUpdates

	h.clock.Advance(1500 * time.Millisecond)

	if h.router.LeaderIsActive() {
		t.Fatal("LeaderIsActive() = true past the deadline")
	}
	if h.surface.titleUpdates != titleAfterActivate+1 {
		t.Errorf("titleUpdates = %d, want teardown refresh", h.surface.titleUpdates)
	}

	// Later observations stay quiet.
	h.router.LeaderIsActive()
	if h.surface.titleUpdates != titleAfterActivate+1 {
		t.Error("expiry teardown ran more than once")
	}

	// The expired leader no longer modifies lookups.
	h.reg.Bind(keymap.DefaultTable, key.Char('t'), key.ModLeader, keymap.Action{Name: "spawn_tab"})
	h.router.DispatchLogicalEvent(h.pane, down(key.Char('t'), key.ModNone))
	if len(h.performer.performed) != 0 {
		t.Errorf("performed = %+v after expiry, want none", h.performer.performed)
	}
}

func TestPerformerErrorCountsHandled(t *testing.T) {
	h := newHarness(Config{})
	h.performer.err = errors.New("pane is dead")
	h.reg.Bind(keymap.DefaultTable, key.Char('c'), key.ModCtrl, keymap.Action{Name: "copy"})

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('c'), key.ModCtrl)) {
		t.Fatal("failed action reported unhandled")
	}
	if len(h.pane.downs) != 0 || h.pane.buf.Len() != 0 {
		t.Error("failed action must not fall through to the pane")
	}
}

func TestPerformerIgnoredFallsThrough(t *testing.T) {
	h := newHarness(Config{})
	h.performer.result = PerformIgnored
	h.reg.Bind(keymap.DefaultTable, key.Char('c'), key.ModNone, keymap.Action{Name: "maybe_copy"})

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('c'), key.ModNone)) {
		t.Fatal("event reported unhandled")
	}
	if len(h.performer.performed) != 1 {
		t.Fatalf("performed = %+v, want one attempt", h.performer.performed)
	}
	if len(h.pane.downs) != 1 || h.pane.downs[0].code != key.Char('c') {
		t.Errorf("pane downs = %+v, want c after ignored action", h.pane.downs)
	}
}

func TestOneShotTableViaRouter(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Bind("quick", key.Char('h'), key.ModNone, keymap.Action{Name: "go_left"})
	h.router.ActivateKeyTable(keytable.Activation{Name: "quick", OneShot: true})

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('h'), key.ModNone)) {
		t.Fatal("table-bound key reported unhandled")
	}
	if len(h.performer.performed) != 1 || h.performer.performed[0].Name != "go_left" {
		t.Errorf("performed = %+v, want [go_left]", h.performer.performed)
	}
	if _, ok := h.router.CurrentTableName(); ok {
		t.Error("one-shot table must pop after serving")
	}
}

func TestUntilUnknownPopsOnTotalMiss(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Bind("launcher", key.Char('n'), key.ModNone, keymap.Action{Name: "new_window"})
	h.router.ActivateKeyTable(keytable.Activation{Name: "launcher", UntilUnknown: true})

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('z'), key.ModNone))

	if len(h.pane.downs) != 1 || h.pane.downs[0].code != key.Char('z') {
		t.Errorf("pane downs = %+v, want pass-through of the miss", h.pane.downs)
	}
	if h.router.TableState().Depth() != 0 {
		t.Errorf("Depth() = %d, want 0 after unknown key", h.router.TableState().Depth())
	}
}

func TestPreventFallbackSwallows(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Bind(keymap.DefaultTable, key.Char('z'), key.ModNone, keymap.Action{Name: "hidden"})
	h.router.ActivateKeyTable(keytable.Activation{Name: "exclusive", PreventFallback: true})

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('z'), key.ModNone)) {
		t.Fatal("swallowed key must count as handled")
	}
	if len(h.performer.performed) != 0 {
		t.Errorf("performed = %+v, want none past the fallback wall", h.performer.performed)
	}
	if len(h.pane.downs) != 0 {
		t.Error("swallowed key must not reach the pane")
	}
	if name, ok := h.router.CurrentTableName(); !ok || name != "exclusive" {
		t.Errorf("CurrentTableName() = %q, %v, want exclusive to stay", name, ok)
	}
}

func TestComposedTextDelivery(t *testing.T) {
	h := newHarness(Config{})

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Composed("日本"), key.ModNone)) {
		t.Fatal("composed text reported unhandled")
	}
	if got := h.pane.buf.String(); got != "日本" {
		t.Errorf("pane received %q, want composed text", got)
	}
	if h.surface.scrolls != 1 {
		t.Errorf("scrolls = %d, want 1", h.surface.scrolls)
	}

	// Releases carrying composed text are dropped.
	if h.router.DispatchLogicalEvent(h.pane, up(key.Composed("日本"), key.ModNone)) {
		t.Error("composed key-up must not be handled")
	}
	if got := h.pane.buf.String(); got != "日本" {
		t.Errorf("pane received %q after release, want unchanged", got)
	}
}

func TestUnrepresentableKeyDropped(t *testing.T) {
	h := newHarness(Config{})

	if h.router.DispatchLogicalEvent(h.pane, down(key.NamedVoidSymbol, key.ModNone)) {
		t.Error("void key reported handled")
	}
	if len(h.pane.downs) != 0 || h.pane.buf.Len() != 0 {
		t.Error("void key must not reach the pane")
	}
}

func TestPlatformPhysicalBinding(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Bind(keymap.DefaultTable, key.Physical{Pos: key.PosC}, key.ModCtrl, keymap.Action{Name: "copy"})

	ev := key.PlatformEvent{
		Key:       key.Char('ç'),
		PhysCode:  key.Physical{Pos: key.PosC},
		HasPhys:   true,
		Raw:       54,
		Modifiers: key.ModCtrl,
		Down:      true,
	}
	if !h.router.DispatchPlatformEvent(h.pane, ev) {
		t.Fatal("physical binding reported unhandled")
	}
	if len(h.performer.performed) != 1 || h.performer.performed[0].Name != "copy" {
		t.Errorf("performed = %+v, want [copy]", h.performer.performed)
	}
}

func TestPlatformRawBinding(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Bind(keymap.DefaultTable, key.Raw(54), key.ModCtrl, keymap.Action{Name: "copy"})

	ev := key.PlatformEvent{
		Key:       key.Char('c'),
		Raw:       54,
		Modifiers: key.ModCtrl,
		Down:      true,
	}
	if !h.router.DispatchPlatformEvent(h.pane, ev) {
		t.Fatal("raw binding reported unhandled")
	}
}

func TestPlatformPassIsBindingOnly(t *testing.T) {
	h := newHarness(Config{})

	ev := key.PlatformEvent{
		Key:       key.Char('x'),
		Raw:       53,
		Modifiers: key.ModNone,
		Down:      true,
	}
	if h.router.DispatchPlatformEvent(h.pane, ev) {
		t.Error("unbound platform event reported handled")
	}
	if len(h.pane.downs) != 0 || h.pane.buf.Len() != 0 {
		t.Error("platform pass must never deliver to the pane")
	}
}

func TestBypassCompose(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		mods key.Modifier
		want bool
	}{
		{"left alt bypasses by default", Config{}, key.ModLeftAlt, true},
		{"left alt composes when enabled", Config{ComposeWhenLeftAlt: true}, key.ModLeftAlt, false},
		{"right alt bypasses by default", Config{}, key.ModRightAlt, true},
		{"right alt composes when enabled", Config{ComposeWhenRightAlt: true}, key.ModRightAlt, false},
		{"generic alt bypasses by default", Config{}, key.ModAlt, true},
		{"generic alt composes when either side composes", Config{ComposeWhenLeftAlt: true}, key.ModAlt, false},
		{"no alt never bypasses", Config{}, key.ModCtrl, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.cfg)
			if got := h.router.bypassCompose(tt.mods); got != tt.want {
				t.Errorf("bypassCompose(%v) = %v, want %v", tt.mods, got, tt.want)
			}
		})
	}
}

func TestBypassComposeDeliversDirectly(t *testing.T) {
	h := newHarness(Config{})

	if !h.router.DispatchLogicalEvent(h.pane, down(key.Char('a'), key.ModLeftAlt)) {
		t.Fatal("alt bypass reported unhandled")
	}
	if len(h.pane.downs) != 1 {
		t.Fatalf("pane downs = %+v, want one", h.pane.downs)
	}
	// Side-specific alt folds to the generic modifier for the pane.
	if h.pane.downs[0].mods != key.ModAlt {
		t.Errorf("pane mods = %v, want ALT", h.pane.downs[0].mods)
	}
}

func TestCSIuEncodedDelivery(t *testing.T) {
	h := newHarness(Config{AllowCSIuEncoding: true})
	h.pane.enc = key.EncodingCSIu

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('a'), key.ModNone))
	if got := h.pane.buf.String(); got != "\x1b[97;1u" {
		t.Errorf("pane received %q, want CSI u encoding", got)
	}
	if len(h.pane.downs) != 0 {
		t.Error("CSI u delivery must replace the key callback")
	}

	// Keys without a CSI u form fall back to the key callback.
	h.pane.buf.Reset()
	h.router.DispatchLogicalEvent(h.pane, down(key.NamedUpArrow, key.ModNone))
	if h.pane.buf.Len() != 0 || len(h.pane.downs) != 1 {
		t.Errorf("arrow delivery: buf=%q downs=%+v", h.pane.buf.String(), h.pane.downs)
	}
}

func TestCSIuDisabledUsesKeyCallbacks(t *testing.T) {
	h := newHarness(Config{})
	h.pane.enc = key.EncodingCSIu

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('a'), key.ModNone))
	if h.pane.buf.Len() != 0 || len(h.pane.downs) != 1 {
		t.Errorf("delivery: buf=%q downs=%+v", h.pane.buf.String(), h.pane.downs)
	}
}

func TestModalInterceptsDelivery(t *testing.T) {
	h := newHarness(Config{})
	modal := &fakeModal{state: keytable.NewState()}
	h.router.SetModal(modal)

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('x'), key.ModNone))
	if len(modal.downs) != 1 || modal.downs[0].code != key.Char('x') {
		t.Errorf("modal downs = %+v, want x", modal.downs)
	}
	if len(h.pane.downs) != 0 {
		t.Error("modal must intercept delivery to the pane")
	}
}

func TestModalTableStackConsultedFirst(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Bind("overlay", key.Char('q'), key.ModNone, keymap.Action{Name: "close_overlay"})
	h.reg.Bind(keymap.DefaultTable, key.Char('q'), key.ModNone, keymap.Action{Name: "global_quit"})

	modal := &fakeModal{state: keytable.NewState()}
	modal.state.Activate(keytable.Activation{Name: "overlay"})
	h.router.SetModal(modal)

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('q'), key.ModNone))
	if len(h.performer.performed) != 1 || h.performer.performed[0].Name != "close_overlay" {
		t.Errorf("performed = %+v, want [close_overlay]", h.performer.performed)
	}
}

func TestCurrentTableNameRecordsWake(t *testing.T) {
	h := newHarness(Config{})
	h.router.ActivateKeyTable(keytable.Activation{Name: "timed", Timeout: time.Second})

	name, ok := h.router.CurrentTableName()
	if !ok || name != "timed" {
		t.Fatalf("CurrentTableName() = %q, %v", name, ok)
	}

	wantWake := h.clock.Now().Add(time.Second)
	if len(h.surface.wakes) == 0 || !h.surface.wakes[len(h.surface.wakes)-1].Equal(wantWake) {
		t.Errorf("wakes = %v, want %v recorded", h.surface.wakes, wantWake)
	}
}

func TestKeyTableExpiryThroughRouter(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Bind("timed", key.Char('h'), key.ModNone, keymap.Action{Name: "go_left"})
	h.router.ActivateKeyTable(keytable.Activation{Name: "timed", Timeout: time.Second})

	h.clock.Advance(1500 * time.Millisecond)

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('h'), key.ModNone))
	if len(h.performer.performed) != 0 {
		t.Errorf("performed = %+v after table expiry, want none", h.performer.performed)
	}
	if len(h.pane.downs) != 1 {
		t.Errorf("pane downs = %+v, want pass-through", h.pane.downs)
	}
}

func TestDebugTraceRecordsResolutions(t *testing.T) {
	h := newHarness(Config{DebugKeyEvents: true})
	h.reg.Bind(keymap.DefaultTable, key.Char('c'), key.ModCtrl, keymap.Action{Name: "copy"})

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('c'), key.ModCtrl))

	records := h.router.Trace().Records()
	if len(records) != 1 {
		t.Fatalf("trace records = %d, want 1", len(records))
	}
	if records[0].Action != "copy" {
		t.Errorf("record action = %q, want copy", records[0].Action)
	}
}

func TestTraceDisabledByDefault(t *testing.T) {
	h := newHarness(Config{})
	h.reg.Bind(keymap.DefaultTable, key.Char('c'), key.ModCtrl, keymap.Action{Name: "copy"})

	h.router.DispatchLogicalEvent(h.pane, down(key.Char('c'), key.ModCtrl))
	if got := len(h.router.Trace().Records()); got != 0 {
		t.Errorf("trace records = %d with debug off, want 0", got)
	}
}
