package pyimports_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieverett/Python-Import-Analyzer/pkg/pyimports"
)

func newExtractor(t *testing.T, opts ...pyimports.Option) *pyimports.Extractor {
	t.Helper()

	ext, err := pyimports.NewExtractor(opts...)
	require.NoError(t, err)

	return ext
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "plain imports",
			source: "import a\nimport b, c\n",
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "from import contributes module",
			source: "from pkg.sub import x\n",
			want:   []string{"pkg.sub"},
		},
		{
			name:   "dotted plain import keeps full name",
			source: "import os.path\n",
			want:   []string{"os.path"},
		},
		{
			name:   "aliases are ignored",
			source: "import numpy as np\nimport a.b as ab, c\n",
			want:   []string{"a.b", "c", "numpy"},
		},
		{
			name:   "relative import without module contributes nothing",
			source: "from . import sibling\nfrom .. import parent\n",
			want:   []string{},
		},
		{
			name:   "relative import with module contributes dotted part",
			source: "from .models import User\nfrom ..core.db import session\n",
			want:   []string{"core.db", "models"},
		},
		{
			name:   "future import",
			source: "from __future__ import annotations\nimport json\n",
			want:   []string{"__future__", "json"},
		},
		{
			name:   "wildcard and parenthesized names",
			source: "from helpers import *\nfrom config import (\n    A,\n    B,\n)\n",
			want:   []string{"config", "helpers"},
		},
		{
			name: "nested imports are collected",
			source: "def main():\n    import util\n\nclass C:\n    from helper import h\n\n" +
				"try:\n    import ujson as json\nexcept ImportError:\n    import json\n\nif True:\n    import cond\n",
			want: []string{"cond", "helper", "json", "ujson", "util"},
		},
		{
			name:   "duplicates collapse",
			source: "import util\nimport util\nfrom util import x\n",
			want:   []string{"util"},
		},
		{
			name:   "no imports",
			source: "def f():\n    return 1\n",
			want:   []string{},
		},
		{
			name:   "empty file",
			source: "",
			want:   []string{},
		},
	}

	ext := newExtractor(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ext.ParseSource(context.Background(), []byte(tt.source))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSource_SyntaxError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
	}{
		{name: "unbalanced parenthesis", source: "import os\ndef broken_func(:\n    return 'x'\n"},
		{name: "print statement", source: "import util\nprint \"hello\"\n"},
		{name: "print chevron", source: "import sys\nprint >>sys.stderr, \"x\"\n"},
		{name: "exec statement", source: "import util\nexec \"x = 1\"\n"},
		{name: "backtick repr", source: "import util\nx = `1`\n"},
		{name: "leading zero integer", source: "import os\nos.chmod(\"f\", 0777)\n"},
		{name: "long integer suffix", source: "import util\nx = 10L\n"},
		{name: "not-equal diamond", source: "import util\nif 1 <> 2:\n    pass\n"},
		{
			name:   "except with comma",
			source: "import util\ntry:\n    pass\nexcept ValueError, e:\n    pass\n",
		},
		{name: "indented first statement", source: "    import util\n"},
		{name: "dedent to unknown level", source: "import util\nif True:\n        x = 1\n    y = 2\n"},
		{name: "tabs and spaces mixed", source: "import util\nif True:\n\tx = 1\n        y = 2\n"},
	}

	ext := newExtractor(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ext.ParseSource(context.Background(), []byte(tt.source))

			require.ErrorIs(t, err, pyimports.ErrParse)
			assert.Empty(t, got)
		})
	}
}

func TestParseSource_Python3Accepted(t *testing.T) {
	t.Parallel()

	source := "import os\n" +
		"\n" +
		"@decorator\n" +
		"class C:\n" +
		"\tdef f(self):\n" +
		"\t\tif self:\n" +
		"\t\t\treturn 0o777 + 0 + 00 + 0_0 + 0777j + 0x1F\n" +
		"\t\telse:\n" +
		"\t\t\tprint(\"x\", 1 != 2)\n" +
		"\n" +
		"try:\n" +
		"    import json\n" +
		"except (ValueError, TypeError) as e:\n" +
		"    pass\n" +
		"x = 1; import util\n" +
		"y = (1,\n" +
		"  2)\n"

	got, err := newExtractor(t).ParseSource(context.Background(), []byte(source))

	require.NoError(t, err)
	assert.Equal(t, []string{"json", "os", "util"}, got)
}

func TestParseSource_InvalidUTF8(t *testing.T) {
	t.Parallel()

	ext := newExtractor(t)

	got, err := ext.ParseSource(context.Background(), []byte{'i', 'm', 'p', 0xff, 0xfe})

	require.ErrorIs(t, err, pyimports.ErrParse)
	assert.Empty(t, got)
}

func TestExtractFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(path, []byte("import util\nimport helper\n\ndef main():\n    pass\n"), 0o600))

	record := newExtractor(t).ExtractFile(context.Background(), path)

	require.NoError(t, record.Error)
	assert.Equal(t, path, record.Path)
	assert.Equal(t, []string{"helper", "util"}, record.Imports)
	assert.Equal(t, "Python", record.Lang)
	assert.True(t, record.HasImport("util"))
	assert.False(t, record.HasImport("os"))
}

func TestExtractFile_FailureIsLoggedAndEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "invalid.py")
	require.NoError(t, os.WriteFile(path, []byte("def broken_func(:\n    return 1\n"), 0o600))

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))
	record := newExtractor(t, pyimports.WithLogger(logger)).ExtractFile(context.Background(), path)

	require.ErrorIs(t, record.Error, pyimports.ErrParse)
	assert.True(t, record.Failed())
	assert.Empty(t, record.Imports)
	assert.Contains(t, buf.String(), "error parsing file")
	assert.Contains(t, buf.String(), "invalid.py")
}

func TestExtractFile_MissingFile(t *testing.T) {
	t.Parallel()

	record := newExtractor(t).ExtractFile(context.Background(), filepath.Join(t.TempDir(), "gone.py"))

	require.ErrorIs(t, record.Error, pyimports.ErrParse)
	assert.Empty(t, record.Imports)
}

func TestExtractFile_CacheInvalidatesOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "mod.py")
	require.NoError(t, os.WriteFile(path, []byte("import a\n"), 0o600))

	ext := newExtractor(t, pyimports.WithCache(16))

	first := ext.ExtractFile(context.Background(), path)
	assert.Equal(t, []string{"a"}, first.Imports)

	again := ext.ExtractFile(context.Background(), path)
	assert.Equal(t, []string{"a"}, again.Imports)

	require.NoError(t, os.WriteFile(path, []byte("import a\nimport bb\n"), 0o600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	changed := ext.ExtractFile(context.Background(), path)
	assert.Equal(t, []string{"a", "bb"}, changed.Imports)
}

func TestExtractor_ConcurrentUse(t *testing.T) {
	t.Parallel()

	ext := newExtractor(t)
	done := make(chan []string)

	for range 8 {
		go func() {
			got, err := ext.ParseSource(context.Background(), []byte("import x\nfrom y.z import w\n"))
			if err != nil {
				done <- nil

				return
			}

			done <- got
		}()
	}

	for range 8 {
		assert.Equal(t, []string{"x", "y.z"}, <-done)
	}
}
