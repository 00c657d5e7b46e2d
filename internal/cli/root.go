// Package cli is the taskplan command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"taskplan/internal/app"
)

// errIssues makes the process exit 1 without printing a second message.
var errIssues = errors.New("issues found")

type rootFlags struct {
	config   string
	logLevel string
	report   reportFlags
}

// Execute is the entry point called from cmd/taskplan/main.go.
func Execute() {
	cmd := NewRootCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errIssues) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Running it without a subcommand prints
// the report, taking optional positional INI and CSV paths.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "taskplan [tasks.ini [tasks.csv]]",
		Short: "Show which client tasks are due over the next business days",
		Long: `taskplan reads recurring client tasks from an INI file (and optionally CSV
or SQLite exports) and lists, for today and the following business days, the
tasks whose schedule fires on each date, grouped by client.

Schedules: "everyday", "every <weekday>", "days:1,15".`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, f, args)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "app config file (default: ./"+app.DefaultConfigPath+" if present)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: trace | debug | info | warn | error | off")
	addReportFlags(root.Flags(), &f.report)

	root.AddCommand(
		newReportCmd(f),
		newWatchCmd(f),
		newValidateCmd(f),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// newApp builds the app for one command run.
func newApp(cmd *cobra.Command, f *rootFlags, ovr app.Overrides) (*app.App, error) {
	if cmd.Flags().Changed("log-level") {
		ovr.LogLevel = &f.logLevel
	}
	return app.New(app.Options{
		ConfigPath: f.config,
		Overrides:  ovr,
		Stdout:     cmd.OutOrStdout(),
		Now:        time.Now,
	})
}
