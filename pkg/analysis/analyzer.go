// Package analysis runs the full import analysis of a Python project: scan,
// parallel import extraction, module resolution, graph construction and
// reachability from an entry point.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/sieverett/Python-Import-Analyzer/pkg/depgraph"
	"github.com/sieverett/Python-Import-Analyzer/pkg/importmodel"
	"github.com/sieverett/Python-Import-Analyzer/pkg/modres"
	"github.com/sieverett/Python-Import-Analyzer/pkg/observability"
	"github.com/sieverett/Python-Import-Analyzer/pkg/pyimports"
	"github.com/sieverett/Python-Import-Analyzer/pkg/pysource"
	"github.com/sieverett/Python-Import-Analyzer/pkg/reach"
)

// Config controls an Analyzer.
type Config struct {
	// Workers bounds parallel parsing. Zero means one worker per CPU.
	Workers int
	// CacheSize is the number of parsed files kept between runs. Zero disables the cache.
	CacheSize int
	// Timeout bounds a single Load. Zero means no timeout.
	Timeout time.Duration

	SkipVendor bool
	SkipHidden bool
}

// Request names the project to analyze.
type Request struct {
	Root       string
	ModuleBase string
	// EntryPoint is an absolute path, a path relative to Root, or a module name.
	// Empty skips reachability.
	EntryPoint string
}

// Analyzer wires the pipeline stages together. It is safe for concurrent use.
type Analyzer struct {
	cfg       Config
	extractor *pyimports.Extractor
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.AnalysisMetrics
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used by every stage.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTracer records one span per stage.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Analyzer) {
		if tracer != nil {
			a.tracer = tracer
		}
	}
}

// WithMetrics records run statistics.
func WithMetrics(metrics *observability.AnalysisMetrics) Option {
	return func(a *Analyzer) {
		a.metrics = metrics
	}
}

// New creates an Analyzer.
func New(cfg Config, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		cfg:    cfg,
		logger: slog.Default(),
		tracer: nooptrace.NewTracerProvider().Tracer("pyimports"),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.cfg.Workers <= 0 {
		a.cfg.Workers = runtime.NumCPU()
	}

	extractor, err := pyimports.NewExtractor(
		pyimports.WithLogger(a.logger),
		pyimports.WithCache(a.cfg.CacheSize),
	)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	a.extractor = extractor

	return a, nil
}

// Project is the resolved, graphed state of one source tree.
type Project struct {
	Root       string
	ModuleBase string
	Files      []string
	Table      *modres.Table
	Records    importmodel.Records
	Graph      *depgraph.Graph
	Unresolved map[string][]string
	Elapsed    time.Duration
}

// Analyze loads req.Root and computes reachability from req.EntryPoint.
// When the entry point is missing the Result still carries the full graph and
// the returned error wraps reach.ErrEntryPointNotFound.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	ctx, span := a.tracer.Start(ctx, "pyimports.analyze",
		trace.WithAttributes(attribute.String("pyimports.root", req.Root)))
	defer span.End()

	project, err := a.Load(ctx, req.Root, req.ModuleBase)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	result, err := project.Result(req.EntryPoint)

	a.metrics.RecordRun(ctx, observability.AnalysisStats{
		Files:    result.Stats.Files,
		Failures: result.Stats.Failures,
		Edges:    result.Stats.Edges,
		Unused:   result.Stats.Unused,
		Duration: result.Stats.Duration,
	})

	if err != nil {
		span.RecordError(err)
		a.logger.WarnContext(ctx, "entry point not found", "entry", req.EntryPoint, "root", project.Root)

		return result, err
	}

	a.logger.InfoContext(ctx, "analysis complete",
		"root", project.Root,
		"files", result.Stats.Files,
		"edges", result.Stats.Edges,
		"unused", result.Stats.Unused,
		"failures", result.Stats.Failures,
	)

	return result, nil
}

// Load scans root, extracts imports in parallel, resolves module names and
// builds the graph. A missing root yields an empty Project.
func (a *Analyzer) Load(ctx context.Context, root, base string) (*Project, error) {
	start := time.Now()

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	_, scanSpan := a.tracer.Start(ctx, "pyimports.scan")
	files := pysource.Scan(absRoot, pysource.Options{
		SkipVendor: a.cfg.SkipVendor,
		SkipHidden: a.cfg.SkipHidden,
		Logger:     a.logger,
	})
	scanSpan.SetAttributes(attribute.Int("pyimports.files", len(files)))
	scanSpan.End()

	a.logger.DebugContext(ctx, "scanned source tree", "root", absRoot, "files", len(files))

	records, err := a.extractAll(ctx, files)
	if err != nil {
		return nil, err
	}

	_, buildSpan := a.tracer.Start(ctx, "pyimports.build")
	table := modres.Resolve(absRoot, files, base)
	graph, unresolved := depgraph.Build(files, table, records)
	buildSpan.SetAttributes(
		attribute.Int("pyimports.modules", table.Len()),
		attribute.Int("pyimports.edges", graph.EdgeCount()),
	)
	buildSpan.End()

	return &Project{
		Root:       absRoot,
		ModuleBase: base,
		Files:      files,
		Table:      table,
		Records:    records,
		Graph:      graph,
		Unresolved: unresolved,
		Elapsed:    time.Since(start),
	}, nil
}

// extractAll parses files on a bounded worker pool. Each worker writes only its
// own slot; cancellation stops dispatching and surfaces ctx.Err().
func (a *Analyzer) extractAll(ctx context.Context, files []string) (importmodel.Records, error) {
	ctx, span := a.tracer.Start(ctx, "pyimports.extract",
		trace.WithAttributes(attribute.Int("pyimports.workers", a.cfg.Workers)))
	defer span.End()

	parsed := make([]importmodel.File, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.cfg.Workers)

	for idx, path := range files {
		if egCtx.Err() != nil {
			break
		}

		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			parsed[idx] = a.extractor.ExtractFile(egCtx, path)

			return nil
		})
	}

	err := eg.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("extract imports: %w", err)
	}

	records := make(importmodel.Records, len(parsed))
	for _, file := range parsed {
		records[file.Path] = file
	}

	return records, nil
}

// ResolveEntry maps an entry reference to a node: an absolute path, a path
// relative to Root, or a module name. The second result is the path reported
// when nothing matches.
func (p *Project) ResolveEntry(entry string) (string, bool) {
	candidate := entry
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(p.Root, candidate)
	}

	candidate = filepath.Clean(candidate)

	if p.Graph.HasNode(candidate) {
		return candidate, true
	}

	if file, ok := p.Table.Lookup(entry); ok && p.Graph.HasNode(file) {
		return file, true
	}

	return candidate, false
}

// Result computes the reachability view of the project from entry.
func (p *Project) Result(entry string) (*Result, error) {
	result := Empty(p.Root, p.ModuleBase)
	result.EntryPoint = entry
	result.Nodes = p.Graph.Nodes()
	result.Edges = p.Graph.Edges()
	result.DisplayNames = p.Table.DisplayNames()
	result.Degrees = degreesOf(p.Graph)
	result.ParseFailures = p.Records.Failures()
	result.Cycles = p.Graph.Cycles()

	for file, names := range p.Unresolved {
		result.Unresolved[file] = names
	}

	result.Stats.Duration = p.Elapsed

	var err error

	if entry != "" {
		err = p.applyReachability(result, entry)
	}

	result.refreshStats()

	return result, err
}

func (p *Project) applyReachability(result *Result, entry string) error {
	node, found := p.ResolveEntry(entry)
	if !found {
		return fmt.Errorf("%w: %s", reach.ErrEntryPointNotFound, node)
	}

	required, unused, err := reach.Partition(p.Graph, node)
	if err != nil {
		return err
	}

	result.EntryPoint = node
	result.Required = required.Sorted()
	result.Unused = unused.Sorted()

	return nil
}
