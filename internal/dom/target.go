// Package dom models the host environment the detector instruments: an event
// target with platform registration semantics, and a global scope whose
// registration and bind primitives are swappable fields.
package dom

import (
	"sync"

	"github.com/roach88/listenleak/internal/listener"
)

// Options mirrors the registration options of the host.
// Only Capture participates in listener identity.
type Options struct {
	Capture bool
	Once    bool
	Passive bool
}

// Event is the value passed as the final argument to listeners.
type Event struct {
	Type   string
	Target any
	Detail any
}

type entry struct {
	typ      string
	listener *listener.Listener
	capture  bool
	once     bool
}

// Target is an event target.
//
// Registration is deduplicated on (type, listener, capture); a second
// identical registration is a no-op. Removal drops the single matching entry.
//
// Thread-safety: Target is safe for concurrent use.
type Target struct {
	mu      sync.Mutex
	entries []entry
}

// NewTarget creates an empty event target.
func NewTarget() *Target {
	return &Target{}
}

// AddEventListener registers l for typ. Nil listeners are ignored.
func (t *Target) AddEventListener(typ string, l *listener.Listener, opts Options) {
	if l == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.indexLocked(typ, l, opts.Capture) >= 0 {
		return
	}
	t.entries = append(t.entries, entry{
		typ:      typ,
		listener: l,
		capture:  opts.Capture,
		once:     opts.Once,
	})
}

// RemoveEventListener unregisters l for typ. Unknown listeners are ignored.
func (t *Target) RemoveEventListener(typ string, l *listener.Listener, opts Options) {
	if l == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if i := t.indexLocked(typ, l, opts.Capture); i >= 0 {
		t.entries = append(t.entries[:i], t.entries[i+1:]...)
	}
}

// DispatchEvent invokes every listener registered for ev.Type in
// registration order and returns how many were invoked.
// Listeners registered with Once are removed before they run.
func (t *Target) DispatchEvent(ev *Event) int {
	t.mu.Lock()
	var matched []entry
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.typ == ev.Type {
			matched = append(matched, e)
			if e.once {
				continue
			}
		}
		kept = append(kept, e)
	}
	t.entries = kept
	t.mu.Unlock()

	// Listeners run outside the lock so they may register or remove others.
	for _, e := range matched {
		e.listener.Call(ev.Target, ev)
	}
	return len(matched)
}

// Count returns the number of registrations for typ.
func (t *Target) Count(typ string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, e := range t.entries {
		if e.typ == typ {
			n++
		}
	}
	return n
}

func (t *Target) indexLocked(typ string, l *listener.Listener, capture bool) int {
	for i, e := range t.entries {
		if e.typ == typ && e.listener == l && e.capture == capture {
			return i
		}
	}
	return -1
}
