package harness

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios, "scenario directory should not be empty")

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			RunWithGolden(t, s)
		})
	}
}

func TestLoadScenario_MissingName(t *testing.T) {
	path := writeScenario(t, "template: '<p>x</p>'\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing name")
}

func TestLoadScenario_UnknownMode(t *testing.T) {
	path := writeScenario(t, "name: m\ntemplate: '<p>x</p>'\nmode: sgml\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown mode")
}

func TestRun_ContextSeedsRootScope(t *testing.T) {
	out, err := Run(&Scenario{
		Name:     "inline",
		Template: `<span w:text="${who}">?</span>`,
		Context:  map[string]any{"who": "tester"},
	})
	require.NoError(t, err)
	require.Equal(t, "<span>tester</span>", out)
}

func TestRun_CustomPrefix(t *testing.T) {
	out, err := Run(&Scenario{
		Name:     "prefixed",
		Template: `<span data-x:text="${who}">?</span>`,
		Prefix:   "data-x",
		Context:  map[string]any{"who": "tester"},
	})
	require.NoError(t, err)
	require.Equal(t, "<span>tester</span>", out)
}

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := t.TempDir() + "/scenario.yaml"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
