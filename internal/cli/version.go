package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskplan/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "taskplan %s\n", version.Version)
			fmt.Fprintf(out, "  commit:     %s\n", version.GitCommit)
			fmt.Fprintf(out, "  built:      %s\n", version.BuildTime)
			fmt.Fprintf(out, "  go version: %s\n", version.GoVersion())
		},
	}
}
