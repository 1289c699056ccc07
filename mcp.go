package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foomo/confluence-export/confluence"
	"github.com/foomo/confluence-export/filestore"
	"github.com/foomo/confluence-export/markup"
	"github.com/foomo/confluence-export/mcp"
	"github.com/foomo/confluence-export/service"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var httpAddr string
	var endpoint string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio or streamable HTTP)",
		Long: `Run confluence-export as a Model Context Protocol (MCP) server.

The server speaks stdio by default. With --http it listens on the given
address and serves:
  POST {endpoint}             streamable MCP
  POST {endpoint}/sse/export  export with Server-Sent Events progress (JSON body)
  GET  {endpoint}/sse         progress of every running export
  GET  /healthz               health check

Requested output directories are resolved under the configured output
directory. Available tools: export_space, convert_storage, breadcrumb_preview`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !strings.HasPrefix(endpoint, "/") {
				return newUserError(fmt.Sprintf("--endpoint must start with '/', got %q", endpoint), nil)
			}
			return runServe(cmd, httpAddr, endpoint)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP server address (e.g., ':8080'), stdio when empty")
	cmd.Flags().StringVar(&endpoint, "endpoint", mcp.DefaultEndpoint, "Path of the MCP endpoint in HTTP mode")
	return cmd
}

func runServe(cmd *cobra.Command, httpAddr, endpoint string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return newUserError("invalid configuration", err)
	}

	// stdout carries the protocol in stdio mode
	l := newLogger(cmd.ErrOrStderr(), cfg.Debug)
	defer func() { _ = l.Sync() }()

	credentials, ok := cfg.Credentials()
	if !ok {
		l.Warn("Atlassian credentials are incomplete, exports will fail until they are set")
	}
	transformer := markup.New(markup.WithLogger(l))
	svc := service.NewService(l, confluence.NewClient(credentials, confluence.WithLogger(l)), filestore.Dir{}, transformer)
	defaults := mcp.Defaults{OutputDir: cfg.OutputDir, Concurrency: cfg.Concurrency}

	if httpAddr == "" {
		l.Info("starting MCP server in stdio mode")
		return server.ServeStdio(mcp.NewServer(l, svc, transformer, defaults, nil))
	}

	hub := mcp.NewHub(l, mcp.DefaultHubConfig())
	s := mcp.NewServer(l, svc, transformer, defaults, hub)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           mcp.NewRouter(l, s, svc, hub, endpoint, defaults),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return listenAndServe(cmd.Context(), l, httpServer)
}

// listenAndServe runs httpServer until ctx is done and then shuts it down.
func listenAndServe(ctx context.Context, l *zap.Logger, httpServer *http.Server) error {
	errs := make(chan error, 1)
	go func() {
		l.Info("starting MCP server", zap.String("addr", httpServer.Addr))
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		l.Info("shutting down MCP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}
