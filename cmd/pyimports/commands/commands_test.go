package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieverett/Python-Import-Analyzer/cmd/pyimports/commands"
	"github.com/sieverett/Python-Import-Analyzer/pkg/analysis"
	"github.com/sieverett/Python-Import-Analyzer/pkg/reach"
	"github.com/sieverett/Python-Import-Analyzer/pkg/report"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return root
}

func scenario(t *testing.T) string {
	t.Helper()

	return writeProject(t, map[string]string{
		"main.py":   "import util\nimport helper\n",
		"util.py":   "import external_lib\n",
		"helper.py": "from util import something\n",
		"unused.py": "import sys\n",
	})
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func TestAnalyze_Text(t *testing.T) {
	t.Parallel()

	root := scenario(t)

	out, logs, err := run(t, "analyze", root, "--entry", "main.py", "--no-color", "--unresolved")
	require.NoError(t, err)

	assert.Contains(t, out, "Entry point: main")
	assert.Contains(t, out, "files 4 | imports 3 | required 3 | unused 1")
	assert.Contains(t, out, "Unused modules (1):\n  - unused")
	assert.Contains(t, out, "util: external_lib")
	assert.Contains(t, logs, "analysis complete")
}

func TestAnalyze_JSONWithFilter(t *testing.T) {
	t.Parallel()

	root := scenario(t)

	out, _, err := run(t, "analyze", root, "--format", "json", "--exclude", "unused")
	require.NoError(t, err)

	var decoded analysis.Result

	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded.Nodes, 3)
	assert.NotContains(t, decoded.Nodes, filepath.Join(root, "unused.py"))
}

func TestAnalyze_OutputFile(t *testing.T) {
	t.Parallel()

	root := scenario(t)
	target := filepath.Join(t.TempDir(), "report.yaml")

	out, _, err := run(t, "analyze", root, "--format", "yaml", "--output", target)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "edges:")
}

func TestAnalyze_MissingEntryStillRendersGraph(t *testing.T) {
	t.Parallel()

	root := scenario(t)

	out, _, err := run(t, "analyze", root, "--entry", "nowhere.py", "--no-color")
	require.ErrorIs(t, err, reach.ErrEntryPointNotFound)
	assert.Contains(t, out, "files 4 | imports 3")
}

func TestAnalyze_FailOnUnused(t *testing.T) {
	t.Parallel()

	root := scenario(t)

	_, _, err := run(t, "analyze", root, "--entry", "main", "--fail-on-unused", "--no-color")
	require.ErrorIs(t, err, commands.ErrUnusedFound)

	_, _, err = run(t, "analyze", root, "--entry", "unused", "--fail-on-unused", "--include", "unused", "--no-color")
	require.ErrorIs(t, err, commands.ErrUnusedFound, "the check uses the unfiltered result")
}

func TestAnalyze_UnknownCodec(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "analyze", scenario(t), "--save", filepath.Join(t.TempDir(), "s.json"), "--codec", "xml")
	require.Error(t, err)
}

func TestSnapshotReportAndDiff(t *testing.T) {
	t.Parallel()

	root := scenario(t)
	dir := t.TempDir()
	before := filepath.Join(dir, "before.json.lz4")
	after := filepath.Join(dir, "after.gob")

	_, _, err := run(t, "analyze", root, "--entry", "main.py", "--save", before, "--format", "json")
	require.NoError(t, err)

	out, _, err := run(t, "report", before, "--no-color", "--focus", "util")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 3 files")

	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("import util\n"), 0o600))

	_, _, err = run(t, "analyze", root, "--entry", "main.py", "--save", after, "--format", "json")
	require.NoError(t, err)

	out, _, err = run(t, "diff", before, after, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed imports (1):\n  - main.py -> helper.py")
	assert.Contains(t, out, "Newly unused (1):\n  + helper.py")

	_, _, err = run(t, "diff", before, after, "--fail-on-change")
	require.ErrorIs(t, err, commands.ErrChanged)

	out, _, err = run(t, "diff", before, before, "--format", "json", "--fail-on-change")
	require.NoError(t, err)

	var change report.Change

	require.NoError(t, json.Unmarshal([]byte(out), &change))
	assert.True(t, change.IsEmpty())
}

func TestReport_MissingSnapshot(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "report", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	t.Parallel()

	root := writeProject(t, map[string]string{
		"__init__.py": "",
		"app.py":      "import proj.lib\n",
		"lib.py":      "",
	})

	cfgPath := filepath.Join(t.TempDir(), "pyimports.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("analysis:\n  module_base: proj\nlogging:\n  level: error\n"), 0o600))

	out, logs, err := run(t, "analyze", root, "--config", cfgPath, "--entry", "proj.app", "--format", "json")
	require.NoError(t, err)
	assert.NotContains(t, logs, "analysis complete")

	var decoded analysis.Result

	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "proj", decoded.ModuleBase)
	assert.Equal(t, []string{filepath.Join(root, "app.py"), filepath.Join(root, "lib.py")}, decoded.Required)

	_, _, err = run(t, "analyze", root, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pyimports ")
}
