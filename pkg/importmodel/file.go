// Package importmodel defines the data model for Python import analysis.
package importmodel

import "slices"

// File represents one Python source file with the distinct module names it imports,
// its detected language and the parse error, if any.
type File struct {
	Path    string
	Imports []string
	Lang    string
	Error   error
}

// Failed reports whether the file could not be parsed.
func (f File) Failed() bool {
	return f.Error != nil
}

// HasImport reports whether name is among the file's imports.
func (f File) HasImport(name string) bool {
	_, found := slices.BinarySearch(f.Imports, name)

	return found
}

// Records indexes import records by file path.
type Records map[string]File

// Imports returns the import names recorded for path; nil when the file is unknown.
func (r Records) Imports(path string) []string {
	return r[path].Imports
}

// Failures returns path -> error message for every file that failed to parse.
func (r Records) Failures() map[string]string {
	out := make(map[string]string)

	for path, file := range r {
		if file.Error != nil {
			out[path] = file.Error.Error()
		}
	}

	return out
}
