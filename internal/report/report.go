// Package report renders snapshots and measures for people and for golden
// files.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/listenleak/internal/diff"
	"github.com/roach88/listenleak/internal/listener"
	"github.com/roach88/listenleak/internal/registry"
)

// Label describes a listener by what it resolves to. Tagged derived
// listeners read "bound <origin>".
func Label(l *listener.Listener) string {
	if origin := l.Origin(); origin != nil {
		return "bound " + origin.String()
	}
	return l.String()
}

// Snapshot renders s as event type to listener labels.
func Snapshot(s registry.Snapshot) map[string][]string {
	out := make(map[string][]string, len(s))
	for typ, ls := range s {
		labels := make([]string, len(ls))
		for i, l := range ls {
			labels[i] = Label(l)
		}
		out[typ] = labels
	}
	return out
}

// Measure renders m with the field names of the measure report.
func Measure(m diff.Measure) map[string]any {
	repeats := make(map[string]any, len(m.ListenersRepeatCount))
	for typ, tally := range m.ListenersRepeatCount {
		repeats[typ] = tally
	}
	return map[string]any{
		"add":                  toAny(Snapshot(m.Add)),
		"remove":               toAny(Snapshot(m.Remove)),
		"listenersRepeatCount": repeats,
	}
}

// MeasureJSON returns the canonical JSON form of m.
func MeasureJSON(m diff.Measure) ([]byte, error) {
	return MarshalCanonical(Measure(m))
}

// SnapshotJSON returns the canonical JSON form of s.
func SnapshotJSON(s registry.Snapshot) ([]byte, error) {
	return MarshalCanonical(Snapshot(s))
}

// WriteText writes a human-readable summary of the measure called name.
func WriteText(w io.Writer, name string, m diff.Measure) error {
	var b strings.Builder
	fmt.Fprintf(&b, "measure %s\n", name)
	writeSection(&b, "added", m.Add)
	writeSection(&b, "removed", m.Remove)

	if !m.HasRepeats() {
		b.WriteString("  repeats: none\n")
	} else {
		b.WriteString("  repeats:\n")
		for _, typ := range sortedTypes(m.ListenersRepeatCount) {
			tally := m.ListenersRepeatCount[typ]
			ids := make([]string, 0, len(tally))
			for id := range tally {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(&b, "    %s: %s x%d\n", typ, id, tally[id])
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSection(b *strings.Builder, title string, s registry.Snapshot) {
	if len(s) == 0 {
		fmt.Fprintf(b, "  %s: none\n", title)
		return
	}
	fmt.Fprintf(b, "  %s: %d\n", title, s.Count())
	for _, typ := range s.Types() {
		labels := make([]string, len(s[typ]))
		for i, l := range s[typ] {
			labels[i] = Label(l)
		}
		fmt.Fprintf(b, "    %s: %s\n", typ, strings.Join(labels, ", "))
	}
}

func sortedTypes(rc diff.RepeatCount) []string {
	out := make([]string, 0, len(rc))
	for typ := range rc {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

func toAny(m map[string][]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
