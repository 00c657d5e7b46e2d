package cli

import (
	"github.com/spf13/cobra"
)

func newReportCmd(rf *rootFlags) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report [tasks.ini [tasks.csv]]",
		Short: "Print the tasks due today and over the next business days",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub := *rf
			sub.report = *f
			return runReport(cmd, &sub, args)
		},
	}
	addReportFlags(cmd.Flags(), f)
	return cmd
}

func runReport(cmd *cobra.Command, f *rootFlags, args []string) error {
	a, err := newApp(cmd, f, f.report.overrides(cmd.Flags(), args))
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Report(cmd.Context(), f.report.pager)
}
