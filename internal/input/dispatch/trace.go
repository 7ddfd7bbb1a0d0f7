package dispatch

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keyroute/internal/input/key"
	"github.com/dshills/keyroute/internal/input/keytable"
)

// traceCapacity bounds the trace ring buffer.
const traceCapacity = 64

// Record is one resolved binding lookup captured for debugging.
type Record struct {
	// ID uniquely identifies the record.
	ID uuid.UUID

	// Time is when the resolution happened.
	Time time.Time

	// Code is the representation that matched.
	Code string

	// Mods are the effective modifiers, including the leader bit.
	Mods key.Modifier

	// Table is the key table that served the match; empty for the
	// default unscoped table.
	Table string

	// Action is the resolved action name.
	Action string
}

// Trace is a bounded buffer of resolution records, populated only when
// debug key events are enabled. Not required for correctness.
type Trace struct {
	mu      sync.Mutex
	records []Record
}

// NewTrace creates an empty trace buffer.
func NewTrace() *Trace {
	return &Trace{}
}

// add appends a record, evicting the oldest past capacity.
func (t *Trace) add(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = append(t.records, rec)
	if len(t.records) > traceCapacity {
		t.records = t.records[len(t.records)-traceCapacity:]
	}
}

// Records returns a copy of the buffered records, oldest first.
func (t *Trace) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of buffered records.
func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// traceResolution records a successful lookup when debugging is on.
func (r *Router) traceResolution(code key.Code, mods key.Modifier, result keytable.Result) {
	if !r.cfg.DebugKeyEvents {
		return
	}

	rec := Record{
		ID:     uuid.New(),
		Time:   time.Now(),
		Code:   code.String(),
		Mods:   mods,
		Table:  result.Table,
		Action: result.Action.Name,
	}
	r.trace.add(rec)

	if result.Table != "" {
		log.Printf("table:%s %s %s -> perform %s", result.Table, rec.Code, mods, rec.Action)
	} else {
		log.Printf("%s %s -> perform %s", rec.Code, mods, rec.Action)
	}
}

// debugf logs dispatch flow when debugging is on.
func (r *Router) debugf(format string, args ...any) {
	if !r.cfg.DebugKeyEvents {
		return
	}
	log.Printf(format, args...)
}
