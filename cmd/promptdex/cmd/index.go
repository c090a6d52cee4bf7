package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptdex/promptdex/internal/conversation"
	"github.com/promptdex/promptdex/internal/source"
	"github.com/promptdex/promptdex/internal/ui"
)

type indexOptions struct {
	url   string
	quiet bool
}

func newIndexCmd() *cobra.Command {
	opts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index <transcript>",
		Short: "Index the user prompts in a saved transcript",
		Long: `Parse a saved chat transcript, extract the user-authored prompts,
deduplicate them against the conversation's existing index, and persist
the result.

The conversation identity is derived from the transcript file name, or
from --url when the original address is known.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "",
		"Original conversation URL (overrides the file-derived identity)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false,
		"Suppress the rendered index, print only the count")

	return cmd
}

func runIndex(cmd *cobra.Command, path string, opts *indexOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := parseTranscript(path)
	if err != nil {
		return err
	}

	var sink ui.Sink = ui.NopSink{}
	if !opts.quiet {
		sink = ui.NewSink(ui.Config{Output: cmd.OutOrStdout()})
	}

	identify := func(string) conversation.Identity {
		if opts.url != "" {
			return conversation.FromURL(opts.url)
		}
		return conversation.FromFile(path)
	}

	s, err := openSession(cfg, sessionConfig{
		sink:     sink,
		doc:      func() source.Node { return doc },
		url:      func() string { return opts.url },
		title:    doc.Title,
		identify: identify,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	s.ctrl.Bootstrap(cmd.Context())
	s.adapter.Flush()

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s: %s\n",
		s.ctrl.Current(), ui.StatusText(s.store.Len()))
	return nil
}
