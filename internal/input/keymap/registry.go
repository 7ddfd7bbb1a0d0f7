package keymap

import (
	"fmt"
	"sync"
	"time"

	"github.com/dshills/keyroute/internal/input/key"
)

// DefaultTable is the name of the unscoped binding table consulted when
// no key table is active.
const DefaultTable = ""

// bindingKey identifies one (code, modifiers) combination.
type bindingKey struct {
	code string
	mods key.Modifier
}

func makeBindingKey(code key.Code, mods key.Modifier) bindingKey {
	return bindingKey{code: code.String(), mods: mods}
}

// Registry holds the configured key bindings: the default unscoped
// table, any number of named key tables, and the leader key definition.
// It is read-only to the dispatcher; mutation happens only through
// configuration loading, which may run on another goroutine.
type Registry struct {
	mu sync.RWMutex

	// tables maps table name to its bindings. DefaultTable holds the
	// unscoped bindings.
	tables map[string]map[bindingKey]Action

	// Leader key definition; zero timeout means no leader configured.
	leaderKey     bindingKey
	leaderTimeout time.Duration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]map[bindingKey]Action),
	}
}

// Bind adds a binding to the named table. Rebinding an existing
// combination replaces it.
func (r *Registry) Bind(table string, code key.Code, mods key.Modifier, action Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[table]
	if !ok {
		t = make(map[bindingKey]Action)
		r.tables[table] = t
	}
	t[makeBindingKey(code, mods)] = action
}

// Unbind removes a binding from the named table.
func (r *Registry) Unbind(table string, code key.Code, mods key.Modifier) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tables[table]; ok {
		delete(t, makeBindingKey(code, mods))
	}
}

// LookupKey finds the action bound to code+mods in the named table.
// Pass DefaultTable for the unscoped bindings.
func (r *Registry) LookupKey(code key.Code, mods key.Modifier, table string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[table]
	if !ok {
		return Action{}, false
	}
	action, ok := t[makeBindingKey(code, mods)]
	return action, ok
}

// SetLeader configures the leader activation combination and timeout.
func (r *Registry) SetLeader(code key.Code, mods key.Modifier, timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaderKey = makeBindingKey(code, mods)
	r.leaderTimeout = timeout
}

// IsLeader reports whether code+mods is the configured leader
// activation, returning the leader timeout on match.
func (r *Registry) IsLeader(code key.Code, mods key.Modifier) (time.Duration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.leaderTimeout == 0 {
		return 0, false
	}
	if makeBindingKey(code, mods) != r.leaderKey {
		return 0, false
	}
	return r.leaderTimeout, true
}

// HasTable reports whether the named table has any bindings.
func (r *Registry) HasTable(table string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tables[table]) > 0
}

// TableNames returns the names of all non-default tables with bindings.
func (r *Registry) TableNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name, t := range r.tables {
		if name == DefaultTable || len(t) == 0 {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Merge copies all bindings and the leader definition (if set) from
// other into r. Used to layer user configuration over defaults.
func (r *Registry) Merge(other *Registry) {
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, src := range other.tables {
		dst, ok := r.tables[name]
		if !ok {
			dst = make(map[bindingKey]Action, len(src))
			r.tables[name] = dst
		}
		for k, v := range src {
			dst[k] = v
		}
	}
	if other.leaderTimeout != 0 {
		r.leaderKey = other.leaderKey
		r.leaderTimeout = other.leaderTimeout
	}
}

// String describes the registry for debugging.
func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, t := range r.tables {
		total += len(t)
	}
	return fmt.Sprintf("Registry(%d tables, %d bindings)", len(r.tables), total)
}
