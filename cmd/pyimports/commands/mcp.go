package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sieverett/Python-Import-Analyzer/pkg/config"
	"github.com/sieverett/Python-Import-Analyzer/pkg/mcp"
	"github.com/sieverett/Python-Import-Analyzer/pkg/observability"
)

const (
	metricsPath           = "/metrics"
	metricsReadTimeout    = 5 * time.Second
	metricsShutdownWindow = 5 * time.Second
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes these tools:
  - pyimports_analyze: import graph of a project, optionally filtered
  - pyimports_unused: files unreachable from an entry point
  - pyimports_neighborhood: files within N import hops of a module

When observability.metrics_addr is configured, Prometheus metrics are served
on that address under /metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cobraCmd)
			if err != nil {
				return err
			}

			cfg.Logging.Format = config.LogFormatJSON
			if debug {
				cfg.Logging.Level = "debug"
			}

			rt, err := newRuntime(cfg, observability.ModeMCP, cobraCmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			red, err := observability.NewREDMetrics(rt.providers.Meter)
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(mcp.ServerDeps{
				Logger:   rt.providers.Logger,
				Metrics:  red,
				Tracer:   rt.providers.Tracer,
				Analyzer: rt.analyzer,
			})
			if err != nil {
				return err
			}

			if handler := rt.providers.MetricsHandler; handler != nil {
				stop, listenErr := serveMetrics(cfg.Observability.MetricsAddr, rt, handler)
				if listenErr != nil {
					return listenErr
				}
				defer stop()
			}

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}

// serveMetrics exposes the Prometheus handler on addr until stop is called.
func serveMetrics(addr string, rt *runtime, handler http.Handler) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, handler)

	server := &http.Server{
		Handler:           observability.HTTPMiddleware(rt.providers.Tracer, mux),
		ReadHeaderTimeout: metricsReadTimeout,
	}

	logger := rt.providers.Logger
	logger.Info("serving metrics", slog.String("addr", listener.Addr().String()), slog.String("path", metricsPath))

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", serveErr)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownWindow)
		defer cancel()

		if shutdownErr := server.Shutdown(ctx); shutdownErr != nil {
			logger.Warn("metrics server shutdown failed", "error", shutdownErr)
		}
	}, nil
}
