package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/listenleak/internal/report"
)

// MeasureSnapshot captures every measure a scenario produced.
// It is serialized with report.MarshalCanonical for deterministic comparison.
type MeasureSnapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts the snapshot to a map[string]any for canonical JSON
// serialization. Listeners are rendered by report label, not scenario alias,
// so golden files show what a developer would see.
func (s *MeasureSnapshot) toCanonicalMap() map[string]any {
	measures := make(map[string]any, len(s.Result.Measures))
	for name, m := range s.Result.Measures {
		measures[name] = report.Measure(m)
	}
	return map[string]any{
		"scenario": s.ScenarioName,
		"measures": measures,
	}
}

// GoldenJSON returns the canonical golden-file form of a result.
func GoldenJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := MeasureSnapshot{ScenarioName: scenarioName, Result: result}
	return report.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its measures against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// The scenario's own expectations are checked too; a failed expectation
// fails the test.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the measures of an existing result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := GoldenJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
