// Package pysource discovers Python source files under a project root.
package pysource

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/src-d/enry/v2"
)

// Extension is the suffix identifying Python source files.
const Extension = ".py"

// Options controls which parts of the tree are walked.
type Options struct {
	// SkipVendor prunes vendored trees (site-packages, node_modules, ...) as classified by enry.
	SkipVendor bool
	// SkipHidden prunes directories whose name starts with a dot.
	SkipHidden bool
	// Logger receives debug messages about skipped entries. Nil uses slog.Default().
	Logger *slog.Logger
}

// Scan returns the sorted absolute paths of every Python file under root.
// A root that does not exist or is not a directory yields an empty result.
func Scan(root string, opts Options) []string {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		logger.Warn("scan root not resolvable", "root", root, "error", err)

		return []string{}
	}

	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		logger.Warn("scan root missing or not a directory", "root", absRoot)

		return []string{}
	}

	files := make([]string, 0)

	walkErr := filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("skipping unreadable entry", "path", path, "error", err)

			if entry != nil && entry.IsDir() && path != absRoot {
				return filepath.SkipDir
			}

			return nil
		}

		if entry.IsDir() {
			if path != absRoot && skipDir(absRoot, path, entry.Name(), opts) {
				logger.Debug("pruning directory", "path", path)

				return filepath.SkipDir
			}

			return nil
		}

		if !strings.HasSuffix(entry.Name(), Extension) {
			return nil
		}

		if opts.SkipVendor && enry.IsVendor(relSlash(absRoot, path)) {
			return nil
		}

		files = append(files, filepath.Clean(path))

		return nil
	})
	if walkErr != nil {
		logger.Warn("scan aborted", "root", absRoot, "error", walkErr)
	}

	slices.Sort(files)

	return files
}

func skipDir(root, path, name string, opts Options) bool {
	if opts.SkipHidden && strings.HasPrefix(name, ".") {
		return true
	}

	return opts.SkipVendor && enry.IsVendor(relSlash(root, path)+"/")
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}

	return filepath.ToSlash(rel)
}
