// Package main provides the entry point for the confluence-export CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/foomo/confluence-export/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build info set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s)", version, shortCommit)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(buildVersion()))
	return exitCode(err)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confluence-export",
		Short: "Export Confluence spaces to Markdown",
		Long: `confluence-export reads every current page of a Confluence Cloud space,
converts its storage-format body to GitHub-flavoured Markdown and writes one
file per page, headed by the page's breadcrumb path.

Credentials are read from ATLASSIAN_SITE_NAME (or ATLASSIAN_BASE_URL),
ATLASSIAN_USER_EMAIL and ATLASSIAN_API_TOKEN, a .env file or the config file.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newUserError("invalid flags", err)
	})
	cmd.PersistentFlags().String("config", "", "Path to the YAML config file")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	lipgloss.SetHasDarkBackground(true)

	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// loadConfig reads the configuration named by --config and applies --debug.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, newUserError("failed to load configuration", err)
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// newLogger logs JSON to w, at debug level when debug is set.
func newLogger(w io.Writer, debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)
	return zap.New(core, zap.AddCaller())
}
