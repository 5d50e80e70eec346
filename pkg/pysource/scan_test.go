package pysource_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieverett/Python-Import-Analyzer/pkg/pysource"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestScan_FindsPythonFilesRecursively(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mainPy := writeFile(t, root, "main.py", "import util\n")
	utilPy := writeFile(t, root, "util.py", "")
	initPy := writeFile(t, root, "pkg/__init__.py", "")
	subPy := writeFile(t, root, "pkg/sub/mod.py", "")
	writeFile(t, root, "README.md", "# readme")
	writeFile(t, root, "setup.cfg", "")
	writeFile(t, root, "pkg/data.pyc", "")

	files := pysource.Scan(root, pysource.Options{})

	assert.Equal(t, []string{mainPy, initPy, subPy, utilPy}, files)
}

func TestScan_ReturnsAbsolutePathsForRelativeRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "")

	files := pysource.Scan(root+string(filepath.Separator)+".", pysource.Options{})

	require.Len(t, files, 1)
	assert.True(t, filepath.IsAbs(files[0]))
	assert.Equal(t, filepath.Join(root, "a.py"), files[0])
}

func TestScan_MissingRootIsEmpty(t *testing.T) {
	t.Parallel()

	files := pysource.Scan(filepath.Join(t.TempDir(), "does_not_exist"), pysource.Options{})

	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestScan_FileRootIsEmpty(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeFile(t, root, "single.py", "")

	assert.Empty(t, pysource.Scan(path, pysource.Options{}))
}

func TestScan_SkipHidden(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	visible := writeFile(t, root, "app.py", "")
	writeFile(t, root, ".tox/env/lib.py", "")

	all := pysource.Scan(root, pysource.Options{})
	assert.Len(t, all, 2)

	filtered := pysource.Scan(root, pysource.Options{SkipHidden: true})
	assert.Equal(t, []string{visible}, filtered)
}

func TestScan_SkipVendor(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	visible := writeFile(t, root, "app.py", "")
	writeFile(t, root, "node_modules/tool/helper.py", "")

	assert.Len(t, pysource.Scan(root, pysource.Options{}), 2)
	assert.Equal(t, []string{visible}, pysource.Scan(root, pysource.Options{SkipVendor: true}))
}
