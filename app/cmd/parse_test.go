package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResponse(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "response.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseCommandFencedExploration(t *testing.T) {
	path := writeResponse(t, "Sure!\n```json\n{\"keyConcepts\": [\"spacing effect\"], \"whatsClear\": \"x\"}\n```\nHope this helps.")
	out, err := executeCLI(t, "--workspace", t.TempDir(), "parse", path, "--schema", "exploration")
	require.NoError(t, err)
	assert.Contains(t, out, "strategy: fenced")
	assert.Contains(t, out, "missing: theoreticalFrameworks")
	assert.Contains(t, out, `"spacing effect"`)
}

func TestParseCommandDegradedProposal(t *testing.T) {
	path := writeResponse(t, "I cannot produce JSON today.")
	out, err := executeCLI(t, "--workspace", t.TempDir(), "parse", path, "--schema", "proposal")
	require.NoError(t, err)
	assert.Contains(t, out, "strategy: none")
	assert.Contains(t, out, "Proposal draft (parsing failed)")
	assert.Contains(t, out, `"degraded": true`)
}

func TestParseCommandExplorationWithoutJSON(t *testing.T) {
	path := writeResponse(t, "no braces here")
	_, err := executeCLI(t, "--workspace", t.TempDir(), "parse", path, "--schema", "exploration")
	assert.Error(t, err)

	_, err = executeCLI(t, "--workspace", t.TempDir(), "parse", path, "--schema", "poem")
	assert.ErrorContains(t, err, "unknown schema")
}
