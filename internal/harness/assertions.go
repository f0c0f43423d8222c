package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/listenleak/internal/detector"
	"github.com/roach88/listenleak/internal/diff"
	"github.com/roach88/listenleak/internal/registry"
	"github.com/roach88/listenleak/internal/report"
)

// AssertionError is recorded when a step's outcome differs from its
// expectation.
type AssertionError struct {
	Step     int    // Index of the failing step
	Op       string // Step operation
	Field    string // Which part of the outcome was checked
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "steps[%d] (%s): %s mismatch\n", e.Step, e.Op, e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// stepContext carries the step being checked and where failures go.
type stepContext struct {
	index  int
	op     string
	result *Result
}

func (c stepContext) fail(field, expected, actual string) {
	err := &AssertionError{Step: c.index, Op: c.op, Field: field, Expected: expected, Actual: actual}
	c.result.AddError(err.Error())
}

// checkError compares err against the expected error kind. It returns true
// when the step succeeded as expected and its outcome should be checked
// further.
func (c stepContext) checkError(expect *Expect, err error) bool {
	want := ""
	if expect != nil {
		want = expect.Error
	}

	if err == nil {
		if want != "" {
			c.fail("error", want, "no error")
		}
		return want == ""
	}

	got := errorKind(err)
	if want == "" {
		c.fail("error", "no error", err.Error())
	} else if got != want {
		c.fail("error", want, got)
	}
	return false
}

func (c stepContext) checkInt(field string, expected, actual int) {
	if expected != actual {
		c.fail(field, fmt.Sprint(expected), fmt.Sprint(actual))
	}
}

func (c stepContext) checkListeners(field string, expected, actual map[string][]string) {
	if !listenersEqual(expected, actual) {
		c.fail(field, formatListeners(expected), formatListeners(actual))
	}
}

func (c stepContext) checkRepeat(expected map[string]map[string]int, actual diff.RepeatCount) {
	got := map[string]map[string]int(actual)
	if len(expected) == 0 && len(got) == 0 {
		return
	}
	if !reflect.DeepEqual(expected, got) {
		c.fail("repeat", fmt.Sprint(expected), fmt.Sprint(got))
	}
}

func (h *Harness) checkMeasure(c stepContext, expect *Expect, m diff.Measure) {
	if expect == nil {
		return
	}
	if expect.Add != nil {
		c.checkListeners("add", expect.Add, h.render(m.Add))
	}
	if expect.Remove != nil {
		c.checkListeners("remove", expect.Remove, h.render(m.Remove))
	}
	if expect.Repeat != nil {
		c.checkRepeat(expect.Repeat, m.ListenersRepeatCount)
	}
}

// render names each listener by its scenario alias, falling back to its
// report label for handles bound without an alias.
func (h *Harness) render(s registry.Snapshot) map[string][]string {
	out := make(map[string][]string, len(s))
	for typ, ls := range s {
		names := make([]string, len(ls))
		for i, l := range ls {
			if alias, ok := h.aliases[l]; ok {
				names[i] = alias
			} else {
				names[i] = report.Label(l)
			}
		}
		out[typ] = names
	}
	return out
}

func errorKind(err error) string {
	switch {
	case detector.IsInvalidArgument(err):
		return ExpectInvalidArgument
	case detector.IsMissingMark(err):
		return ExpectMissingMark
	default:
		return err.Error()
	}
}

func listenersEqual(a, b map[string][]string) bool {
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

// formatListeners renders m deterministically, e.g. "{click: [f, g]}".
func formatListeners(m map[string][]string) string {
	types := make([]string, 0, len(m))
	for typ := range m {
		types = append(types, typ)
	}
	sort.Strings(types)

	parts := make([]string, len(types))
	for i, typ := range types {
		parts[i] = fmt.Sprintf("%s: [%s]", typ, strings.Join(m[typ], ", "))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
