package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listenleak/internal/journal"
)

func intPtr(n int) *int { return &n }

func TestRun_RepeatedRegistrationReportedOnce(t *testing.T) {
	scenario := &Scenario{
		Name:      "reregistered",
		Listeners: []string{"f"},
		Steps: []Step{
			{Op: OpAdd, Type: "click", Listener: "f"},
			{Op: OpMark, Name: "m1"},
			{Op: OpAdd, Type: "click", Listener: "f"},
			{Op: OpMark, Name: "m2"},
			{Op: OpMeasure, Name: "r", Start: "m1", End: "m2", Expect: &Expect{
				Add:    map[string][]string{"click": {"f"}},
				Remove: map[string][]string{},
				Repeat: map[string]map[string]int{},
			}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, []string{"r"}, result.MeasureOrder)
	assert.Equal(t, 1, result.Measures["r"].Add.Count())
}

func TestRun_BoundHandlesShareIdentity(t *testing.T) {
	scenario := &Scenario{
		Name:      "bound",
		Listeners: []string{"onClick"},
		Steps: []Step{
			{Op: OpMark, Name: "before"},
			{Op: OpBind, Listener: "onClick", As: "a"},
			{Op: OpBind, Listener: "a", As: "b"},
			{Op: OpAdd, Type: "click", Listener: "a"},
			{Op: OpAdd, Type: "click", Listener: "b"},
			{Op: OpMark, Name: "after"},
			{Op: OpMeasure, Name: "leak", Start: "before", End: "after", Expect: &Expect{
				Add:    map[string][]string{"click": {"a", "b"}},
				Repeat: map[string]map[string]int{"click": {"onClick": 2}},
			}},
			{Op: OpDispatch, Type: "click", Expect: &Expect{Delivered: intPtr(2)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_ExpectationMismatchRecorded(t *testing.T) {
	scenario := &Scenario{
		Name:      "mismatch",
		Listeners: []string{"f", "g"},
		Steps: []Step{
			{Op: OpMark, Name: "a"},
			{Op: OpAdd, Type: "click", Listener: "f"},
			{Op: OpMark, Name: "b"},
			{Op: OpMeasure, Name: "r", Start: "a", End: "b", Expect: &Expect{
				Add: map[string][]string{"click": {"g"}},
			}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[3] (measure): add mismatch")
	assert.Contains(t, result.Errors[0], "Expected: {click: [g]}")
	assert.Contains(t, result.Errors[0], "Actual: {click: [f]}")
}

func TestRun_ExpectedErrors(t *testing.T) {
	scenario := &Scenario{
		Name: "errors",
		Steps: []Step{
			{Op: OpMark, Name: "", Expect: &Expect{Error: ExpectInvalidArgument}},
			{Op: OpMeasure, Name: "r", Start: "nope", End: "nope", Expect: &Expect{Error: ExpectMissingMark}},
			{Op: OpEnd, Name: "load", Expect: &Expect{Error: ExpectMissingMark}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Measures)
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:  "unexpected",
		Steps: []Step{{Op: OpMeasure, Name: "r", Start: "a", End: "b"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "error mismatch")
	assert.Contains(t, result.Errors[0], "Expected: no error")
}

func TestRun_MissingExpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:  "missing_error",
		Steps: []Step{{Op: OpMark, Name: "a", Expect: &Expect{Error: ExpectInvalidArgument}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Actual: no error")
}

func TestRun_WrongErrorKind(t *testing.T) {
	scenario := &Scenario{
		Name:  "wrong_kind",
		Steps: []Step{{Op: OpMark, Name: "", Expect: &Expect{Error: ExpectMissingMark}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: missing_mark")
	assert.Contains(t, result.Errors[0], "Actual: invalid_argument")
}

func TestRun_StartEndMeasureName(t *testing.T) {
	scenario := &Scenario{
		Name:      "start_end",
		Listeners: []string{"onLoad"},
		Steps: []Step{
			{Op: OpStart, Name: "load", ID: "1"},
			{Op: OpAdd, Type: "load", Listener: "onLoad"},
			{Op: OpEnd, Name: "load", ID: "1", Expect: &Expect{
				Add: map[string][]string{"load": {"onLoad"}},
			}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, []string{"load-1"}, result.MeasureOrder)
}

func TestRun_RemeasureKeepsOrder(t *testing.T) {
	scenario := &Scenario{
		Name:      "remeasure",
		Listeners: []string{"f"},
		Steps: []Step{
			{Op: OpMark, Name: "a"},
			{Op: OpMeasure, Name: "x", Start: "a", End: "a"},
			{Op: OpMeasure, Name: "y", Start: "a", End: "a"},
			{Op: OpAdd, Type: "click", Listener: "f"},
			{Op: OpMark, Name: "b"},
			{Op: OpMeasure, Name: "x", Start: "a", End: "b"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, result.MeasureOrder)
	assert.Equal(t, 1, result.Measures["x"].Add.Count())
}

func TestRun_TeardownEmptiesSnapshot(t *testing.T) {
	scenario := &Scenario{
		Name:      "teardown",
		Listeners: []string{"f"},
		Steps: []Step{
			{Op: OpAdd, Type: "click", Listener: "f"},
			{Op: OpSnapshot, Expect: &Expect{Snapshot: map[string][]string{"click": {"f"}}}},
			{Op: OpTeardown},
			{Op: OpSnapshot, Expect: &Expect{Snapshot: map[string][]string{}}},
			// The host still holds the registration.
			{Op: OpDispatch, Type: "click", Expect: &Expect{Delivered: intPtr(1)}},
			// No longer mirrored.
			{Op: OpAdd, Type: "scroll", Listener: "f"},
			{Op: OpSnapshot, Expect: &Expect{Snapshot: map[string][]string{}}},
			{Op: OpMark, Name: "a", Expect: &Expect{Snapshot: map[string][]string{}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_ClearMarks(t *testing.T) {
	scenario := &Scenario{
		Name: "clear",
		Steps: []Step{
			{Op: OpMark, Name: "a"},
			{Op: OpMark, Name: "b"},
			{Op: OpClearMarks, Name: "a"},
			{Op: OpMeasure, Name: "r", Start: "a", End: "b", Expect: &Expect{Error: ExpectMissingMark}},
			{Op: OpMeasure, Name: "r", Start: "b", End: "b"},
			{Op: OpClearMeasure},
			{Op: OpClearMarks},
			{Op: OpMeasure, Name: "r", Start: "b", End: "b", Expect: &Expect{Error: ExpectMissingMark}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_UnknownListener(t *testing.T) {
	scenario := &Scenario{
		Name:  "unknown",
		Steps: []Step{{Op: OpAdd, Type: "click", Listener: "ghost"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `steps[0] (add): unknown listener "ghost"`)
}

func TestRun_UnknownOp(t *testing.T) {
	scenario := &Scenario{
		Name:  "unknown_op",
		Steps: []Step{{Op: "observe"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op "observe"`)
}

func TestRun_JournalsUnderScenarioSession(t *testing.T) {
	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	scenario := &Scenario{
		Name:      "journaled",
		Session:   "test-session-0001",
		Listeners: []string{"f"},
		Steps: []Step{
			{Op: OpMark, Name: "a"},
			{Op: OpAdd, Type: "click", Listener: "f"},
			{Op: OpMark, Name: "b"},
			{Op: OpMeasure, Name: "r", Start: "a", End: "b"},
		},
	}

	result, err := Run(scenario, WithRecorder(j))
	require.NoError(t, err)
	assert.Equal(t, "test-session-0001", result.Session)

	entries, err := j.Entries(context.Background(), "test-session-0001")
	require.NoError(t, err)

	ops := make([]journal.Op, len(entries))
	for i, e := range entries {
		ops[i] = e.Op
	}
	assert.Equal(t, []journal.Op{
		journal.OpMark,
		journal.OpAdd,
		journal.OpMark,
		journal.OpMeasure,
		journal.OpTeardown,
	}, ops)
	assert.Equal(t, `{"add":{"click":["f"]},"listenersRepeatCount":{},"remove":{}}`, entries[3].Detail)
}

func TestRun_DefaultSession(t *testing.T) {
	result, err := Run(&Scenario{Name: "s", Steps: []Step{{Op: OpMark, Name: "a"}}})
	require.NoError(t, err)
	assert.Equal(t, "test-session-default", result.Session)
}

type seqGenerator struct{ n int }

func (g *seqGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("gen-%d", g.n)
}

func TestRun_SessionIDGenerator(t *testing.T) {
	gen := &seqGenerator{}

	result, err := Run(&Scenario{Name: "s", Steps: []Step{{Op: OpMark, Name: "a"}}}, WithSessionIDGenerator(gen))
	require.NoError(t, err)
	assert.Equal(t, "gen-1", result.Session)

	// A fixed session wins over the generator.
	result, err = Run(&Scenario{Name: "s", Session: "fixed", Steps: []Step{{Op: OpMark, Name: "a"}}}, WithSessionIDGenerator(gen))
	require.NoError(t, err)
	assert.Equal(t, "fixed", result.Session)
}
