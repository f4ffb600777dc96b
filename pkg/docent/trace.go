package docent

import (
	"fmt"
	"sync"
	"time"
)

// TraceEntry is one timestamped diagnostic line.
type TraceEntry struct {
	Time    time.Time
	Message string
}

// Trace is an append-only diagnostic log for one orchestrator. It is
// purely observational: nothing reads it to make control decisions, and
// appending never blocks the caller on a consumer.
type Trace struct {
	mu      sync.Mutex
	entries []TraceEntry
	updated chan struct{}
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{updated: make(chan struct{}, 1)}
}

// Append records a formatted entry with the current time.
func (t *Trace) Append(format string, args ...any) {
	t.mu.Lock()
	t.entries = append(t.entries, TraceEntry{
		Time:    time.Now(),
		Message: fmt.Sprintf(format, args...),
	})
	t.mu.Unlock()

	// Coalesced wakeup; a pending notification covers any number of
	// appends.
	select {
	case t.updated <- struct{}{}:
	default:
	}
}

// Entries returns a snapshot copy of all entries in append order.
func (t *Trace) Entries() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Updated signals that at least one entry was appended since the last
// receive. Multiple appends may coalesce into one signal.
func (t *Trace) Updated() <-chan struct{} {
	return t.updated
}
