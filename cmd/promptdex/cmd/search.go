package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptdex/promptdex/internal/ui"
)

type searchOptions struct {
	url    string
	file   string
	format string
	limit  int
}

func newSearchCmd() *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search a conversation's indexed prompts",
		Long: `Filter the persisted index of a conversation by a case-insensitive
substring match. With no query, all entries are listed in first-seen
order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return runSearch(cmd, query, opts)
		},
	}

	addIdentityFlags(cmd, &opts.url, &opts.file)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text",
		"Output format: text or json")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0,
		"Maximum number of results (0 = all)")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts *searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := loadConversation(cfg, resolveIdentity(opts.url, opts.file))
	if err != nil {
		return err
	}
	defer s.Close()

	results := s.store.Search(query)
	if opts.limit > 0 && len(results) > opts.limit {
		results = results[:opts.limit]
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No matching prompts")
		return nil
	}
	for i, e := range results {
		fmt.Fprintf(out, "%3d. %s\n", i+1, ui.DisplayText(e.Text))
	}
	fmt.Fprintln(out, ui.StatusText(len(results)))
	return nil
}
