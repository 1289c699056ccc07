package main

import (
	"fmt"
	"io"
	"os"

	"github.com/foomo/confluence-export/markup"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	var view bool

	cmd := &cobra.Command{
		Use:   "convert [FILE|-]",
		Short: "Convert one storage-format document to Markdown",
		Long: `Convert a Confluence storage-format document to Markdown on stdout.

Reads from FILE, or from stdin when FILE is "-" or missing. With --view the
input is treated as rendered view HTML instead.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return newUserError(fmt.Sprintf("%s takes at most one file", cmd.CommandPath()), nil)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, view)
		},
	}
	cmd.Flags().BoolVar(&view, "view", false, "Input is rendered view HTML")
	return cmd
}

func runConvert(cmd *cobra.Command, args []string, view bool) error {
	source, err := readSource(cmd, args)
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	l := newLogger(cmd.ErrOrStderr(), debug)
	defer func() { _ = l.Sync() }()

	var markdown string
	if view {
		if markdown, err = markup.ConvertView(source); err != nil {
			return fmt.Errorf("failed to convert view HTML: %w", err)
		}
	} else {
		markdown = markup.New(markup.WithLogger(l)).Transform(source)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), markdown)
	return err
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", newUserError("failed to read "+args[0], err)
	}
	return string(data), nil
}
