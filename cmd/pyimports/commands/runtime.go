// Package commands implements CLI command handlers for pyimports.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sieverett/Python-Import-Analyzer/pkg/analysis"
	"github.com/sieverett/Python-Import-Analyzer/pkg/config"
	"github.com/sieverett/Python-Import-Analyzer/pkg/observability"
	"github.com/sieverett/Python-Import-Analyzer/pkg/version"
)

// ConfigFlag is the persistent flag naming an explicit configuration file.
const ConfigFlag = "config"

// analysisFlags are the pipeline settings shared by every command that scans a tree.
type analysisFlags struct {
	moduleBase string
	workers    int
	skipVendor bool
	skipHidden bool
	logLevel   string
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.moduleBase, "base", "b", "", "Dotted package name the root directory is imported as")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Parallel parse workers (0: one per CPU)")
	cmd.Flags().BoolVar(&f.skipVendor, "skip-vendor", false, "Skip vendored and virtualenv directories")
	cmd.Flags().BoolVar(&f.skipHidden, "skip-hidden", false, "Skip hidden directories")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// apply copies explicitly set flags over the loaded configuration.
func (f *analysisFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("base") {
		cfg.Analysis.ModuleBase = f.moduleBase
	}

	if flags.Changed("workers") {
		cfg.Analysis.Workers = f.workers
	}

	if flags.Changed("skip-vendor") {
		cfg.Scan.SkipVendor = f.skipVendor
	}

	if flags.Changed("skip-hidden") {
		cfg.Scan.SkipHidden = f.skipHidden
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
}

// runtime bundles what a command needs to run an analysis.
type runtime struct {
	cfg       *config.Config
	providers observability.Providers
	analyzer  *analysis.Analyzer
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(ConfigFlag)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// observabilityConfig maps the file configuration onto the observability layer.
func observabilityConfig(cfg *config.Config, mode observability.AppMode, logWriter io.Writer) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceVersion = version.Version
	obs.Mode = mode
	obs.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obs.OTLPInsecure = cfg.Observability.OTLPInsecure
	obs.SampleRatio = cfg.Observability.SampleRatio
	obs.Prometheus = mode == observability.ModeMCP && cfg.Observability.MetricsAddr != ""
	obs.LogLevel = cfg.Logging.SlogLevel()
	obs.LogJSON = cfg.Logging.Format == config.LogFormatJSON
	obs.LogFile = observability.LogFile{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}

	if cfg.Logging.File == "" {
		obs.LogWriter = logWriter
	}

	return obs
}

func newRuntime(cfg *config.Config, mode observability.AppMode, logWriter io.Writer) (*runtime, error) {
	providers, err := observability.Init(observabilityConfig(cfg, mode, logWriter))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewAnalysisMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	analyzer, err := analysis.New(analysis.Config{
		Workers:    cfg.Analysis.Workers,
		CacheSize:  cfg.Analysis.CacheSize,
		Timeout:    cfg.Analysis.Timeout,
		SkipVendor: cfg.Scan.SkipVendor,
		SkipHidden: cfg.Scan.SkipHidden,
	},
		analysis.WithLogger(providers.Logger),
		analysis.WithTracer(providers.Tracer),
		analysis.WithMetrics(metrics),
	)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &runtime{cfg: cfg, providers: providers, analyzer: analyzer}, nil
}

func (rt *runtime) close() {
	if err := rt.providers.Shutdown(context.Background()); err != nil {
		rt.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}
