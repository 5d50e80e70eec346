// Package pyimports extracts imported module names from Python source using the
// tree-sitter Python grammar.
package pyimports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/src-d/enry/v2"

	"github.com/sieverett/Python-Import-Analyzer/pkg/importmodel"
)

// Sentinel errors for extraction.
var (
	// ErrParse marks a file whose content could not be turned into a syntax tree.
	ErrParse     = errors.New("python parse failure")
	errPoolType  = errors.New("parser pool returned unexpected type")
	errNoRoot    = errors.New("no root node")
	errNotUTF8   = errors.New("content is not valid UTF-8")
	errSyntax    = errors.New("syntax error")
	errReadInput = errors.New("read source")
)

// Tree-sitter node kinds of the Python grammar.
const (
	kindImport         = "import_statement"
	kindImportFrom     = "import_from_statement"
	kindFutureImport   = "future_import_statement"
	kindAliasedImport  = "aliased_import"
	kindDottedName     = "dotted_name"
	kindRelativeImport = "relative_import"
	kindIdentifier     = "identifier"

	fieldName       = "name"
	fieldModuleName = "module_name"

	futureModule = "__future__"
)

// languageName is the label recorded when enry cannot classify a file.
const languageName = "Python"

var (
	languageOnce sync.Once
	language     *sitter.Language
)

func pythonLanguage() *sitter.Language {
	languageOnce.Do(func() {
		language = sitter.NewLanguage(python.GetLanguage())
	})

	return language
}

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

// Extractor parses Python files and returns their imported module names.
// It is safe for concurrent use.
type Extractor struct {
	logger *slog.Logger
	pool   sync.Pool
	cache  *lru.Cache[cacheKey, []string]
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithLogger sets the logger that receives parse failure warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger != nil {
			e.logger = logger
		}

		return nil
	}
}

// WithCache keeps the import sets of up to size files, keyed by path, size and
// modification time. A non-positive size disables caching.
func WithCache(size int) Option {
	return func(e *Extractor) error {
		if size <= 0 {
			return nil
		}

		cache, err := lru.New[cacheKey, []string](size)
		if err != nil {
			return fmt.Errorf("create extraction cache: %w", err)
		}

		e.cache = cache

		return nil
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) (*Extractor, error) {
	lang := pythonLanguage()

	ext := &Extractor{
		logger: slog.Default(),
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}

	for _, opt := range opts {
		err := opt(ext)
		if err != nil {
			return nil, err
		}
	}

	return ext, nil
}

// ParseSource returns the sorted distinct module names imported by content.
// Any failure to produce a clean syntax tree is reported as ErrParse, including
// Python 2 syntax and indentation errors the grammar tolerates.
func (e *Extractor) ParseSource(ctx context.Context, content []byte) ([]string, error) {
	if !utf8.Valid(content) {
		return []string{}, fmt.Errorf("%w: %w", ErrParse, errNotUTF8)
	}

	tsParser, ok := e.pool.Get().(*sitter.Parser)
	if !ok {
		return []string{}, fmt.Errorf("%w: %w", ErrParse, errPoolType)
	}

	defer e.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return []string{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return []string{}, fmt.Errorf("%w: %w", ErrParse, errNoRoot)
	}

	if root.HasError() {
		return []string{}, fmt.Errorf("%w: %w", ErrParse, errSyntax)
	}

	if err := checkPython3(root, content); err != nil {
		return []string{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return collect(importNames(root, content)), nil
}

// ExtractFile reads and parses one file. Parse and read failures are logged and
// returned in File.Error with an empty import set; they never stop a scan.
func (e *Extractor) ExtractFile(ctx context.Context, path string) importmodel.File {
	record := importmodel.File{Path: path, Imports: []string{}, Lang: languageName}

	info, statErr := os.Stat(path)

	var key cacheKey
	if statErr == nil && e.cache != nil {
		key = cacheKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}

		if imports, hit := e.cache.Get(key); hit {
			record.Imports = imports

			return record
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		record.Error = fmt.Errorf("%w: %w: %w", ErrParse, errReadInput, err)
		e.logger.WarnContext(ctx, "error parsing file", "path", path, "error", record.Error)

		return record
	}

	if lang := enry.GetLanguage(filepath.Base(path), content); lang != "" {
		record.Lang = lang
	}

	imports, err := e.ParseSource(ctx, content)
	if err != nil {
		record.Error = err
		e.logger.WarnContext(ctx, "error parsing file", "path", path, "error", err)

		return record
	}

	record.Imports = imports

	if statErr == nil && e.cache != nil {
		e.cache.Add(key, imports)
	}

	return record
}

// importNames walks the tree and yields the name contributed by every import
// statement, in source order.
func importNames(root sitter.Node, content []byte) []string {
	var names []string

	stack := []sitter.Node{root}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch current.Type() {
		case kindImport:
			names = append(names, plainImportNames(current, content)...)

			continue
		case kindImportFrom:
			if name := fromImportModule(current, content); name != "" {
				names = append(names, name)
			}

			continue
		case kindFutureImport:
			names = append(names, futureModule)

			continue
		}

		// Push in reverse so children pop in source order.
		count := current.NamedChildCount()
		for idx := range count {
			stack = append(stack, current.NamedChild(count-1-idx))
		}
	}

	return names
}

// plainImportNames handles `import a.b, c as d`.
func plainImportNames(stmt sitter.Node, content []byte) []string {
	var names []string

	for idx := range stmt.NamedChildCount() {
		child := stmt.NamedChild(idx)

		switch child.Type() {
		case kindDottedName:
			names = append(names, dottedName(child, content))
		case kindAliasedImport:
			if nameNode := child.ChildByFieldName(fieldName); !nameNode.IsNull() {
				names = append(names, dottedName(nameNode, content))
			}
		}
	}

	return names
}

// fromImportModule handles `from X import ...`. Relative imports contribute only
// their explicit dotted part; `from . import x` contributes nothing.
func fromImportModule(stmt sitter.Node, content []byte) string {
	module := stmt.ChildByFieldName(fieldModuleName)
	if module.IsNull() {
		return ""
	}

	switch module.Type() {
	case kindDottedName:
		return dottedName(module, content)
	case kindRelativeImport:
		for idx := range module.NamedChildCount() {
			child := module.NamedChild(idx)
			if child.Type() == kindDottedName {
				return dottedName(child, content)
			}
		}
	}

	return ""
}

// dottedName joins the identifiers of a dotted_name, dropping any whitespace or
// comments the source placed between the segments.
func dottedName(n sitter.Node, content []byte) string {
	var name []byte

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() != kindIdentifier {
			continue
		}

		if len(name) > 0 {
			name = append(name, '.')
		}

		name = append(name, nodeText(child, content)...)
	}

	if len(name) == 0 {
		return string(nodeText(n, content))
	}

	return string(name)
}

func nodeText(n sitter.Node, content []byte) []byte {
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(content)) || start > end {
		return nil
	}

	return content[start:end]
}

// collect reduces a sequence of names to its sorted distinct set.
func collect(names []string) []string {
	out := make([]string, 0, len(names))

	for _, name := range names {
		if name != "" {
			out = append(out, name)
		}
	}

	slices.Sort(out)

	return slices.Compact(out)
}
