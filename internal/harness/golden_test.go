package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// First run with -update to create golden files:
//
//	go test ./internal/harness -run TestGolden -update
func TestGolden_Scenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "golden files are named after the scenario")

			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/bound_leak.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	require.NoError(t, AssertGolden(t, "bound_leak", result))
}
