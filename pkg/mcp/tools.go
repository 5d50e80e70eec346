package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sieverett/Python-Import-Analyzer/pkg/analysis"
	"github.com/sieverett/Python-Import-Analyzer/pkg/depgraph"
	"github.com/sieverett/Python-Import-Analyzer/pkg/reach"
)

// Tool name constants.
const (
	ToolNameAnalyze      = "pyimports_analyze"
	ToolNameUnused       = "pyimports_unused"
	ToolNameNeighborhood = "pyimports_neighborhood"
)

const (
	// DefaultDepth is the neighborhood radius used when none is given.
	DefaultDepth = 1
	// MaxDepth caps the neighborhood radius.
	MaxDepth = 16
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyRoot indicates the root parameter is empty.
	ErrEmptyRoot = errors.New("root parameter is required and must not be empty")
	// ErrRootNotAbsolute indicates the root is not an absolute path.
	ErrRootNotAbsolute = errors.New("root must be an absolute path")
	// ErrRootNotFound indicates the root does not exist or is not a directory.
	ErrRootNotFound = errors.New("root directory does not exist")
	// ErrEmptyEntryPoint indicates the entry_point parameter is empty.
	ErrEmptyEntryPoint = errors.New("entry_point parameter is required and must not be empty")
	// ErrEmptyFocus indicates the focus parameter is empty.
	ErrEmptyFocus = errors.New("focus parameter is required and must not be empty")
	// ErrDepthOutOfRange indicates the depth parameter is negative or too large.
	ErrDepthOutOfRange = errors.New("depth is out of range")
)

// Input types (auto-generate JSON schemas via struct tags).

// AnalyzeInput is the input schema for the pyimports_analyze tool.
type AnalyzeInput struct {
	Root           string   `json:"root"                      jsonschema:"absolute path to the Python project directory"`
	ModuleBase     string   `json:"module_base,omitempty"     jsonschema:"dotted package name the directory is imported as"`
	EntryPoint     string   `json:"entry_point,omitempty"     jsonschema:"entry file path or module name for reachability"`
	Include        []string `json:"include,omitempty"         jsonschema:"keep only files whose path or module contains one of these"`
	Exclude        []string `json:"exclude,omitempty"         jsonschema:"drop files whose path or module contains one of these"`
	MinConnections int      `json:"min_connections,omitempty" jsonschema:"minimum number of import edges per file"`
	MaxConnections int      `json:"max_connections,omitempty" jsonschema:"maximum number of import edges per file (0 is unbounded)"`
}

// UnusedInput is the input schema for the pyimports_unused tool.
type UnusedInput struct {
	Root       string `json:"root"                  jsonschema:"absolute path to the Python project directory"`
	ModuleBase string `json:"module_base,omitempty" jsonschema:"dotted package name the directory is imported as"`
	EntryPoint string `json:"entry_point"           jsonschema:"entry file path or module name"`
}

// NeighborhoodInput is the input schema for the pyimports_neighborhood tool.
type NeighborhoodInput struct {
	Root       string `json:"root"                  jsonschema:"absolute path to the Python project directory"`
	ModuleBase string `json:"module_base,omitempty" jsonschema:"dotted package name the directory is imported as"`
	Focus      string `json:"focus"                 jsonschema:"file path or module name at the center"`
	Depth      int    `json:"depth,omitempty"       jsonschema:"number of import hops to include (default 1)"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data    any    `json:"data"`
	Warning string `json:"warning,omitempty"`
}

// FileEntry names one file in tool output.
type FileEntry struct {
	Path     string `json:"path"`
	Module   string `json:"module,omitempty"`
	Distance int    `json:"distance,omitempty"`
}

// UnusedOutput is the payload of pyimports_unused.
type UnusedOutput struct {
	EntryPoint string      `json:"entry_point"`
	Required   int         `json:"required"`
	Unused     []FileEntry `json:"unused"`
}

// NeighborhoodOutput is the payload of pyimports_neighborhood.
type NeighborhoodOutput struct {
	Focus string          `json:"focus"`
	Depth int             `json:"depth"`
	Files []FileEntry     `json:"files"`
	Edges []depgraph.Edge `json:"edges"`
}

func (s *Server) handleAnalyze(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input AnalyzeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateRoot(input.Root); err != nil {
		return errorResult(err)
	}

	result, err := s.analyzer.Analyze(ctx, analysis.Request{
		Root:       input.Root,
		ModuleBase: input.ModuleBase,
		EntryPoint: input.EntryPoint,
	})

	// A missing entry point still leaves the whole graph to report.
	entryErr := err
	if err != nil && !errors.Is(err, reach.ErrEntryPointNotFound) {
		return errorResult(err)
	}

	filter := analysis.Filter{
		Include:        input.Include,
		Exclude:        input.Exclude,
		MinConnections: input.MinConnections,
		MaxConnections: input.MaxConnections,
	}

	if !filter.IsZero() {
		result, err = filter.Apply(result)
		if err != nil {
			return errorResult(err)
		}
	}

	if entryErr != nil {
		return warningResult(result, entryErr)
	}

	return jsonResult(result)
}

func (s *Server) handleUnused(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input UnusedInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateRoot(input.Root); err != nil {
		return errorResult(err)
	}

	if input.EntryPoint == "" {
		return errorResult(ErrEmptyEntryPoint)
	}

	result, err := s.analyzer.Analyze(ctx, analysis.Request{
		Root:       input.Root,
		ModuleBase: input.ModuleBase,
		EntryPoint: input.EntryPoint,
	})
	if err != nil {
		return errorResult(err)
	}

	out := UnusedOutput{
		EntryPoint: result.EntryPoint,
		Required:   len(result.Required),
		Unused:     make([]FileEntry, 0, len(result.Unused)),
	}

	for _, file := range result.Unused {
		out.Unused = append(out.Unused, FileEntry{Path: file, Module: result.DisplayNames[file]})
	}

	return jsonResult(out)
}

func (s *Server) handleNeighborhood(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input NeighborhoodInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateRoot(input.Root); err != nil {
		return errorResult(err)
	}

	if input.Focus == "" {
		return errorResult(ErrEmptyFocus)
	}

	depth := input.Depth
	if depth == 0 {
		depth = DefaultDepth
	}

	if depth < 0 || depth > MaxDepth {
		return errorResult(fmt.Errorf("%w: %d (max %d)", ErrDepthOutOfRange, depth, MaxDepth))
	}

	result, err := s.analyzer.Analyze(ctx, analysis.Request{Root: input.Root, ModuleBase: input.ModuleBase})
	if err != nil {
		return errorResult(err)
	}

	near, err := result.Neighborhood(input.Focus, depth)
	if err != nil {
		return errorResult(err)
	}

	sub, err := analysis.Filter{Focus: input.Focus, Depth: depth}.Apply(result)
	if err != nil {
		return errorResult(err)
	}

	out := NeighborhoodOutput{
		Focus: input.Focus,
		Depth: depth,
		Files: make([]FileEntry, 0, len(near)),
		Edges: sub.Edges,
	}

	for file, distance := range near {
		out.Files = append(out.Files, FileEntry{Path: file, Module: result.DisplayNames[file], Distance: distance})
	}

	slices.SortFunc(out.Files, func(a, b FileEntry) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.Path, b.Path))
	})

	return jsonResult(out)
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// warningResult returns value like jsonResult with the warning appended as a
// second text block.
func warningResult(value any, warning error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	result, output, err := jsonResult(value)
	if result.IsError {
		return result, output, err
	}

	output.Warning = warning.Error()
	result.Content = append(result.Content, &mcpsdk.TextContent{Text: "warning: " + output.Warning})

	return result, output, err
}

func validateRoot(root string) error {
	if root == "" {
		return ErrEmptyRoot
	}

	if !filepath.IsAbs(root) {
		return fmt.Errorf("%w: %s", ErrRootNotAbsolute, root)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	return nil
}
