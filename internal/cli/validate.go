package cli

import (
	"github.com/spf13/cobra"
)

func newValidateCmd(rf *rootFlags) *cobra.Command {
	var (
		f      reportFlags
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "validate [tasks.ini [tasks.csv]]",
		Short: "Load every task source and check all schedules",
		Long: `validate loads the task sources without rendering a report and lists
skipped sections or rows, malformed schedules and schedules that can never
fire. It exits 1 if a source cannot be read, or with --strict if any issue
was found.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, rf, f.overrides(cmd.Flags(), args))
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.Validate(cmd.Context())
			if err != nil {
				return err
			}
			if err := v.Write(cmd.OutOrStdout()); err != nil {
				return err
			}
			if strict && !v.Clean() {
				return errIssues
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.ini, "ini", "", "INI task file (default: tasks.ini)")
	fs.StringVar(&f.csv, "csv", "", "CSV task export")
	fs.StringVar(&f.sqlite, "sqlite", "", "SQLite database with a tasks table")
	fs.StringVar(&f.sqliteTable, "sqlite-table", "", "table read from --sqlite (default: tasks)")
	fs.BoolVar(&strict, "strict", false, "exit 1 when any entry was skipped or any schedule is malformed")
	return cmd
}
