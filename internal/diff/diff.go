// Package diff compares two registry snapshots.
//
// Add and Remove use reference membership, counted per occurrence: every
// occurrence of a handle in end is matched against one occurrence of the same
// handle in start, and the unmatched ones are added. Registering f once
// before the start mark and once more after it therefore adds f once.
//
// The repeat count uses resolved identity instead, so a handler that was
// re-bound and re-attached several times is counted once per attachment even
// though every bind produced a new handle.
package diff

import (
	"github.com/roach88/listenleak/internal/listener"
	"github.com/roach88/listenleak/internal/registry"
)

// RepeatCount maps event type to resolved identity to the number of times
// that identity was newly added. Only counts of 2 or more are kept.
type RepeatCount map[string]map[string]int

// Measure is the difference between two snapshots.
type Measure struct {
	// Add holds listeners present at end but not at start.
	Add registry.Snapshot

	// Remove holds listeners present at start but gone at end.
	Remove registry.Snapshot

	// ListenersRepeatCount holds identities added at least twice.
	ListenersRepeatCount RepeatCount
}

// HasRepeats reports whether any identity was added more than once.
func (m Measure) HasRepeats() bool {
	return len(m.ListenersRepeatCount) > 0
}

// Empty reports whether nothing changed between the two snapshots.
func (m Measure) Empty() bool {
	return len(m.Add) == 0 && len(m.Remove) == 0
}

// Compute returns the difference between start and end. Neither input is
// modified.
func Compute(start, end registry.Snapshot) Measure {
	remove := make(registry.Snapshot, len(start))
	for typ, ls := range start {
		remove[typ] = missing(ls, end[typ])
	}

	add := make(registry.Snapshot, len(end))
	for typ, ls := range end {
		add[typ] = missing(ls, start[typ])
	}

	add = add.Prune()
	return Measure{
		Add:                  add,
		Remove:               remove.Prune(),
		ListenersRepeatCount: countRepeats(add),
	}
}

// missing returns the entries of from left over after each one is matched
// against an occurrence of the same handle in in. Earlier entries match
// first.
func missing(from, in []*listener.Listener) []*listener.Listener {
	budget := make(map[*listener.Listener]int, len(in))
	for _, l := range in {
		budget[l]++
	}
	var out []*listener.Listener
	for _, l := range from {
		if budget[l] > 0 {
			budget[l]--
			continue
		}
		out = append(out, l)
	}
	return out
}

func countRepeats(add registry.Snapshot) RepeatCount {
	out := make(RepeatCount)
	for typ, ls := range add {
		tally := make(map[string]int, len(ls))
		for _, l := range ls {
			tally[l.Identity()]++
		}
		for id, n := range tally {
			if n < 2 {
				delete(tally, id)
			}
		}
		if len(tally) > 0 {
			out[typ] = tally
		}
	}
	return out
}
