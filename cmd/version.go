package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time through -ldflags
var (
	version = "dev"
	commit  = "none"
)

// NewVersionCmd prints build information
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "omniclipper %s (%s)\n", version, commit)
			return nil
		},
	}
}
