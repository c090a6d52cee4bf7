package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptdex/promptdex/internal/export"
)

type exportOptions struct {
	url    string
	file   string
	format string
	out    string
	stdout bool
}

func newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a conversation's index to Markdown or plain text",
		Long: `Write the persisted index of a conversation to a file, numbered in
first-seen order with a metadata header.

The output file name defaults to promptdex_<conversation>_<stamp>.<ext>
in the working directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}

	addIdentityFlags(cmd, &opts.url, &opts.file)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "md",
		"Export format: md or txt")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "",
		"Output file path (default: generated name in the working directory)")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false,
		"Write to stdout instead of a file")

	return cmd
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id := resolveIdentity(opts.url, opts.file)
	s, err := loadConversation(cfg, id)
	if err != nil {
		return err
	}
	defer s.Close()

	entries := s.store.Entries()
	meta := export.Metadata{
		Title:      id.String(),
		URL:        opts.url,
		ExportedAt: time.Now().UTC(),
	}

	if opts.stdout {
		return export.Write(cmd.OutOrStdout(), format, meta, entries)
	}

	path := opts.out
	if path == "" {
		path = export.Filename(id.Conversation, format, time.Now().UTC())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := export.Write(f, format, meta, entries); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d prompts to %s\n", len(entries), path)
	return nil
}
