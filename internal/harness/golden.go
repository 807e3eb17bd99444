package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// RunWithGolden renders a scenario and compares the output against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Error scenarios (WantError set) assert the failure instead and touch no
// golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	out, err := Run(scenario)

	if scenario.WantError != "" {
		require.Error(t, err, "scenario %s should fail", scenario.Name)
		require.Contains(t, err.Error(), scenario.WantError,
			"scenario %s failed with the wrong error", scenario.Name)
		return
	}

	require.NoError(t, err, "scenario %s should render", scenario.Name)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(out))
}
