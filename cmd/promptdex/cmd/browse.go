package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptdex/promptdex/internal/ui"
)

type browseOptions struct {
	url     string
	file    string
	noColor bool
}

func newBrowseCmd() *cobra.Command {
	opts := &browseOptions{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a conversation's index interactively",
		Long: `Open the persisted index of a conversation in an interactive terminal
view with incremental filtering. Up/Down move the cursor, typing
filters, Esc quits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd, opts)
		},
	}

	addIdentityFlags(cmd, &opts.url, &opts.file)
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")

	return cmd
}

func runBrowse(cmd *cobra.Command, opts *browseOptions) error {
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

	if s.store.Len() == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No prompts indexed for %s\n", id)
		return nil
	}

	noColor := opts.noColor || ui.DetectNoColor()
	return ui.RunBrowse(s.store, id.String(), noColor)
}
