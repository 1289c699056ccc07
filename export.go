package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/foomo/confluence-export/config"
	"github.com/foomo/confluence-export/confluence"
	"github.com/foomo/confluence-export/filestore"
	"github.com/foomo/confluence-export/service"
	"github.com/foomo/confluence-export/service/vo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

type exportFlags struct {
	space       string
	outputDir   string
	format      string
	ignore      []string
	concurrency int
	frontMatter bool
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a Confluence space to Markdown files",
		Long: `Export every current page of a Confluence space to one Markdown file per page.

The output directory is emptied before the export starts. Pages are skipped
with ignore filters:
  parent:PAGE_ID   skip the page and every page below it
  title:REGEX      skip pages whose title matches the expression

Examples:
  confluence-export export --space DOCS
  confluence-export export --space DOCS --output-dir ./docs --ignore parent:12345
  confluence-export export --space DOCS --ignore 'title:^Draft' --concurrency 4`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.space, "space", "s", "", "Key of the Confluence space to export")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", config.DefaultOutputDir, "Directory the Markdown files are written to")
	cmd.Flags().StringVar(&flags.format, "format", service.FormatMarkdown, "Output format, only markdown is supported")
	cmd.Flags().StringArrayVarP(&flags.ignore, "ignore", "i", nil, "Ignore filter, parent:ID or title:REGEX (repeatable)")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "c", config.DefaultConcurrency, "Number of pages exported at once")
	cmd.Flags().BoolVar(&flags.frontMatter, "front-matter", false, "Prepend YAML front matter to every file")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if flags.space == "" {
		return newUserError("--space is required", nil)
	}
	if flags.format != service.FormatMarkdown {
		return newUserError(fmt.Sprintf("unsupported format %q, only %q is available", flags.format, service.FormatMarkdown), nil)
	}
	if err := service.ValidateFilters(flags.ignore); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = flags.outputDir
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flags.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return newUserError("invalid configuration", err)
	}

	l := newLogger(cmd.ErrOrStderr(), cfg.Debug)
	defer func() { _ = l.Sync() }()

	credentials, ok := cfg.Credentials()
	if !ok {
		l.Warn("Atlassian credentials are incomplete")
	}
	client := confluence.NewClient(credentials, confluence.WithLogger(l))
	svc := service.NewService(l, client, filestore.Dir{}, nil)

	l.Info("starting export",
		zap.String("spaceKey", flags.space),
		zap.String("outputDir", cfg.OutputDir),
		zap.Strings("ignore", flags.ignore),
		zap.Int("concurrency", cfg.Concurrency),
	)
	summary, err := svc.ExportSpace(cmd.Context(), service.Options{
		SpaceKey:      flags.space,
		OutputDir:     cfg.OutputDir,
		IgnoreFilters: flags.ignore,
		Concurrency:   cfg.Concurrency,
		FrontMatter:   flags.frontMatter,
	})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("✗ export of "+flags.space+" failed"))
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), service.FormatSummary(summary))
	fmt.Fprintln(cmd.ErrOrStderr(), statusLine(summary))
	return nil
}

func statusLine(summary *vo.ExportSummary) string {
	line := fmt.Sprintf("%d exported, %d skipped, %d failed in %.2fs",
		summary.PagesExported, summary.PagesSkipped, len(summary.Errors), summary.Duration.Seconds())
	if len(summary.Errors) > 0 {
		return warningStyle.Render("! " + line)
	}
	return successStyle.Render("✓ " + line)
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return newUserError(fmt.Sprintf("%s takes no arguments, got %q", cmd.CommandPath(), args), nil)
	}
	return nil
}
