package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut

	err := app.Run(context.Background(), append([]string{"huddle"}, args...))
	return out.String(), err
}

func TestCatalogCommand(t *testing.T) {
	out, err := runApp(t, "catalog")
	gt.NoError(t, err)
	gt.S(t, out).Contains("1. Neural Networks Overview [neural, cnn, rnn, transformer] (mock.org/nn)")
	gt.S(t, out).Contains("Total: 5 documents")
}

func TestCatalogCommandCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("documents:\n  - title: Only\n    text: one document\n"), 0o644))

	out, err := runApp(t, "catalog", "--catalog", path, "--json")
	gt.NoError(t, err)

	var decoded struct {
		Documents []map[string]any `json:"documents"`
	}
	gt.NoError(t, json.Unmarshal([]byte(out), &decoded))
	gt.A(t, decoded.Documents).Length(1)
	gt.Equal(t, decoded.Documents[0]["title"], any("Only"))
}

func TestQueryCommand(t *testing.T) {
	out, err := runApp(t, "query", "--seed", "3", "--log-level", "error",
		"Find recent papers on reinforcement learning, analyze their methodologies, and identify common challenges.")
	gt.NoError(t, err)

	var raw map[string]json.RawMessage
	gt.NoError(t, json.Unmarshal([]byte(out), &raw))

	var plan []string
	gt.NoError(t, json.Unmarshal(raw["plan"], &plan))
	gt.Equal(t, plan, []string{"research", "analysis", "memory_update"})

	var results map[string]json.RawMessage
	gt.NoError(t, json.Unmarshal(raw["results"], &results))
	_, ok := results["memory_record"]
	gt.True(t, ok)
}

func TestQueryCommandRequiresText(t *testing.T) {
	_, err := runApp(t, "query")
	gt.Error(t, err)
}

func TestQueryCommandWithPolicyDir(t *testing.T) {
	out, err := runApp(t, "query", "--policy-dir", "../router/testdata/custom", "--metrics", "--log-level", "error",
		"please summarize optimizers")
	gt.NoError(t, err)
	gt.S(t, out).Contains(`"plan": [
    "research",
    "analysis",
    "synthesis"
  ]`)
	gt.S(t, out).Contains(`huddle_coordinator_queries_total{plan="research+analysis+synthesis"} 1`)
}

func TestQueryCommandRejectsBadTopK(t *testing.T) {
	_, err := runApp(t, "query", "--top-k", "0", "anything")
	gt.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	out, err := runApp(t, "run", "--output", dir, "--seed", "1", "--log-level", "warn", "--metrics")
	gt.NoError(t, err)

	for _, name := range []string{"simple_query.txt", "complex_query.txt", "memory_test.txt", "multi_step.txt", "collaborative.txt"} {
		_, statErr := os.Stat(filepath.Join(dir, name))
		gt.NoError(t, statErr)
		gt.S(t, out).Contains("[WROTE] " + filepath.Join(dir, name))
	}
	gt.S(t, out).Contains("--- SCENARIOS RUN COMPLETE ---")
	gt.S(t, out).Contains("huddle_memory_records 2")
}
