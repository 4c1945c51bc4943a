package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/resources"
	"github.com/teemow/grnsync/internal/server"
	"github.com/teemow/grnsync/internal/tools/google_tools"
	"github.com/teemow/grnsync/internal/tools/grn_tools"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Addr is the address for the metrics server (e.g., ":9090"). Empty
	// disables the server.
	Addr string
}

func newServeCmd() *cobra.Command {
	var metricsConfig MetricsConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server on stdio. It exposes the fetch, ingest and run
workflows, local file parsing and the Google authorization flow as tools.

With --metrics-addr a second listener serves Prometheus metrics on /metrics
and health probes on /healthz, /readyz and /healthz/detailed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsConfig.Addr = addr
				}
			}
			return runServe(cmd, metricsConfig)
		},
	}

	cmd.Flags().StringVar(&metricsConfig.Addr, "metrics-addr", "", "Address for the metrics and health server, e.g. :9090 (default: disabled, env METRICS_ADDR)")
	return cmd
}

func runServe(cmd *cobra.Command, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(shutdownCtx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	logger := logging.WithService(a.logger, "mcp")

	health := server.NewHealthChecker(a.sc)
	health.SetReady(false)

	var metricsServer *server.MetricsServer
	if metricsConfig.Addr != "" {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: a.provider,
			Health:                  health,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		// Wait for metrics server to be ready or fail
		select {
		case <-metricsReady:
			logger.Info("metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	mcpSrv := mcpserver.NewMCPServer("grnsync", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := registerAllTools(mcpSrv, a.sc); err != nil {
		return err
	}
	health.SetReady(true)

	for _, name := range a.sc.Capabilities().Unavailable() {
		logger.Info("parsing strategy unavailable", logging.Strategy(name), "reason", a.sc.Capabilities().Reason(name))
	}
	return runStdioServer(shutdownCtx, mcpSrv)
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "GRN",
			register: func() error {
				return grn_tools.RegisterGRNTools(mcpSrv, sc)
			},
		},
		{
			name: "Google",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
		{
			name: "resources",
			register: func() error {
				return resources.RegisterResources(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}
