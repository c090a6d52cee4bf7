package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type clearOptions struct {
	url  string
	file string
	yes  bool
}

func newClearCmd() *cobra.Command {
	opts := &clearOptions{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear a conversation's index",
		Long: `Empty the index for a conversation and persist the cleared record.
The next indexing run rebuilds it from the transcript.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClear(cmd, opts)
		},
	}

	addIdentityFlags(cmd, &opts.url, &opts.file)
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false,
		"Skip the confirmation prompt")

	return cmd
}

func runClear(cmd *cobra.Command, opts *clearOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id := resolveIdentity(opts.url, opts.file)

	if !opts.yes {
		fmt.Fprintf(cmd.OutOrStdout(), "Clear the index for %s? [y/N] ", id)
		var answer string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" && answer != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	s, err := loadConversation(cfg, id)
	if err != nil {
		return err
	}
	defer s.Close()

	n := s.store.Len()
	s.ctrl.Clear()

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d prompts for %s\n", n, id)
	return nil
}
