// Package registry holds the live listener registry and the immutable
// snapshots taken from it.
//
// The registry over-approximates the host: Append never deduplicates and
// RemoveAll drops every occurrence. A registration the host would ignore is
// still visible here, which is what makes repeat attempts observable.
package registry

import (
	"sort"

	"github.com/roach88/listenleak/internal/listener"
)

// Snapshot maps event type to listener references in registration order.
// Snapshots returned by this package never contain an empty sequence.
type Snapshot map[string][]*listener.Listener

// Registry maps event type to the listeners currently believed attached.
//
// Registry is not safe for concurrent use; the session it instruments is
// single-threaded.
type Registry struct {
	types map[string][]*listener.Listener
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string][]*listener.Listener)}
}

// Append records l under typ, creating the sequence if absent.
func (r *Registry) Append(typ string, l *listener.Listener) {
	r.types[typ] = append(r.types[typ], l)
}

// RemoveAll drops every occurrence of l under typ and returns how many were
// dropped. An unknown typ gets an empty sequence.
func (r *Registry) RemoveAll(typ string, l *listener.Listener) int {
	buf := r.types[typ]
	if buf == nil {
		buf = []*listener.Listener{}
	}
	removed := 0
	for i := indexOf(buf, l); i >= 0; i = indexOf(buf, l) {
		buf = append(buf[:i], buf[i+1:]...)
		removed++
	}
	r.types[typ] = buf
	return removed
}

// Reset empties every sequence. Keys are kept.
func (r *Registry) Reset() {
	for typ := range r.types {
		r.types[typ] = []*listener.Listener{}
	}
}

// Types returns every known event type, including empty ones, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.types))
	for typ := range r.types {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of entries recorded under typ.
func (r *Registry) Len(typ string) int {
	return len(r.types[typ])
}

// Snapshot returns a pruned copy of the registry. Each sequence is copied,
// never aliased.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot(r.types).Prune()
}

// Copy returns a copy of s with every sequence copied. Empty sequences are
// kept.
func (s Snapshot) Copy() Snapshot {
	out := make(Snapshot, len(s))
	for typ, ls := range s {
		out[typ] = append([]*listener.Listener{}, ls...)
	}
	return out
}

// Prune returns a copy of s without empty sequences.
func (s Snapshot) Prune() Snapshot {
	out := make(Snapshot, len(s))
	for typ, ls := range s {
		if len(ls) > 0 {
			out[typ] = append([]*listener.Listener(nil), ls...)
		}
	}
	return out
}

// Types returns the event types in s, sorted.
func (s Snapshot) Types() []string {
	out := make([]string, 0, len(s))
	for typ := range s {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Count returns the total number of references in s.
func (s Snapshot) Count() int {
	n := 0
	for _, ls := range s {
		n += len(ls)
	}
	return n
}

// Contains reports whether l appears under typ.
func (s Snapshot) Contains(typ string, l *listener.Listener) bool {
	return indexOf(s[typ], l) >= 0
}

// Equal reports whether s and other hold the same references in the same
// order for every non-empty type.
func (s Snapshot) Equal(other Snapshot) bool {
	a, b := s.Prune(), other.Prune()
	if len(a) != len(b) {
		return false
	}
	for typ, as := range a {
		bs, ok := b[typ]
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
	}
	return true
}

func indexOf(ls []*listener.Listener, l *listener.Listener) int {
	for i, x := range ls {
		if x == l {
			return i
		}
	}
	return -1
}
