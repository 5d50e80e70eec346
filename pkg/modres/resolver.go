// Package modres maps Python source files to dotted module names and back.
package modres

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// PackageInit is the file that marks a directory as a Python package.
const PackageInit = "__init__.py"

const (
	sourceExt = ".py"
	separator = "."
)

// Table is the resolution table of one scan: module name -> file, plus the
// inverse canonical map file -> module name. It is immutable after Resolve.
type Table struct {
	byName map[string]string
	byFile map[string]string
	names  []string
}

// Resolve builds the table for files discovered under root. base, when not empty,
// prefixes every module name.
//
// Every file contributes its canonical name. Every ancestor directory holding an
// __init__.py contributes an alias to that init file. A package alias shadows a
// sibling module of the same name, so `pkg` resolves to `pkg/__init__.py` even
// next to `pkg.py`; the inverse map still names `pkg.py` canonically.
func Resolve(root string, files []string, base string) *Table {
	table := &Table{
		byName: make(map[string]string, len(files)),
		byFile: make(map[string]string, len(files)),
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = filepath.Clean(root)
	}

	sorted := slices.Clone(files)
	slices.Sort(sorted)

	for _, file := range sorted {
		name, ok := ModuleName(absRoot, file, base)
		if !ok {
			continue
		}

		table.byName[name] = file
		table.byFile[file] = name
	}

	aliases := make(map[string]string)

	for _, file := range sorted {
		for name, init := range packageAliases(absRoot, file, base) {
			if _, taken := aliases[name]; !taken {
				aliases[name] = init
			}
		}
	}

	for name, init := range aliases {
		table.byName[name] = init
	}

	table.names = make([]string, 0, len(table.byName))
	for name := range table.byName {
		table.names = append(table.names, name)
	}

	slices.Sort(table.names)

	return table
}

// ModuleName derives the dotted name of file relative to root: separators become
// dots and the trailing .py is stripped. It reports false for files outside root.
func ModuleName(root, file, base string) (string, bool) {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", false
	}

	rel = strings.TrimSuffix(rel, sourceExt)
	name := strings.Join(strings.Split(rel, string(filepath.Separator)), separator)

	return qualify(base, name), true
}

// packageAliases returns dotted directory name -> __init__.py for every ancestor
// directory of file (root included when base names it) that is a package.
func packageAliases(root, file, base string) map[string]string {
	rel, err := filepath.Rel(root, filepath.Dir(file))
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}

	aliases := make(map[string]string)

	if base != "" {
		if init, ok := initFile(root); ok {
			aliases[base] = init
		}
	}

	if rel == "." {
		return aliases
	}

	parts := strings.Split(rel, string(filepath.Separator))

	for i := 1; i <= len(parts); i++ {
		dir := filepath.Join(append([]string{root}, parts[:i]...)...)

		init, ok := initFile(dir)
		if !ok {
			continue
		}

		aliases[qualify(base, strings.Join(parts[:i], separator))] = init
	}

	return aliases
}

func initFile(dir string) (string, bool) {
	path := filepath.Join(dir, PackageInit)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}

	return path, true
}

func qualify(base, name string) string {
	if base == "" {
		return name
	}

	return base + separator + name
}

// Lookup returns the file a module name designates.
func (t *Table) Lookup(name string) (string, bool) {
	file, ok := t.byName[name]

	return file, ok
}

// LongestPrefix returns the longest known module name M such that name starts
// with "M." together with its file. Unrelated names report false.
func (t *Table) LongestPrefix(name string) (string, string, bool) {
	for candidate := name; ; {
		idx := strings.LastIndex(candidate, separator)
		if idx <= 0 {
			return "", "", false
		}

		candidate = candidate[:idx]

		if file, ok := t.byName[candidate]; ok {
			return candidate, file, true
		}
	}
}

// Name returns the canonical module name of file.
func (t *Table) Name(file string) (string, bool) {
	name, ok := t.byFile[file]

	return name, ok
}

// Names returns every module name in the table, sorted.
func (t *Table) Names() []string {
	return slices.Clone(t.names)
}

// DisplayNames returns a copy of the inverse map file -> canonical module name.
func (t *Table) DisplayNames() map[string]string {
	out := make(map[string]string, len(t.byFile))
	for file, name := range t.byFile {
		out[file] = name
	}

	return out
}

// Len returns the number of module names in the table.
func (t *Table) Len() int {
	return len(t.byName)
}
