package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptdex/promptdex/pkg/version"
)

type versionOptions struct {
	json  bool
	short bool
}

func newVersionCmd() *cobra.Command {
	opts := &versionOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, build, and platform information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.short, "short", false, "Output version number only")

	return cmd
}

func runVersion(cmd *cobra.Command, opts *versionOptions) error {
	out := cmd.OutOrStdout()

	if opts.short {
		fmt.Fprintln(out, version.Short())
		return nil
	}

	if opts.json {
		data, err := json.MarshalIndent(version.GetInfo(), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal version info: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, version.String())
	return nil
}
