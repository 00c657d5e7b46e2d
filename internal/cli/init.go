package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"taskplan/internal/app"
)

const defaultConfigYAML = `# taskplan app config
# Priority: CLI flag > this file > default.

logging:
  level: info          # trace | debug | info | warn | error | off
  console: true
  file:
    enabled: false
    path: ./taskplan.log

sources:
  ini: ./tasks.ini
  # csv: ./tasks.csv
  # sqlite:
  #   path: ./tasks.db
  #   table: tasks

report:
  days: 4              # today plus the next three business days
  format: pretty       # pretty | plain | json | yaml
  color: auto          # auto | always | never
  workers: 4

watch:
  refresh: "0 7 * * *" # cron, Go duration ("30m") or HH:MM ("01:30")
  reload_on_change: true
  debounce: 250ms
  warn_every: 1h
`

const sampleTasksINI = `; Each task is a section named Client.<client>.<task>.
; "schedule" is one of: everyday | every <weekday> | days:<d1>,<d2>,...
; Every other key is shown under the task.

[Client.Acme.Invoicing]
schedule = every Monday
priority = high
description = Send weekly invoices

[Client.Acme.Payroll]
schedule = days:1,15
priority = high
estimated_duration = 2h
`

func newInitCmd() *cobra.Command {
	var (
		force  bool
		sample bool
		dir    string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write ` + app.DefaultConfigPath + ` with every setting at its default.

With --sample a starter tasks.ini is written next to it.
Fails if a file already exists unless --force is passed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}
			files := []struct{ name, body string }{{app.DefaultConfigPath, defaultConfigYAML}}
			if sample {
				files = append(files, struct{ name, body string }{"tasks.ini", sampleTasksINI})
			}
			for _, f := range files {
				dest := filepath.Join(dir, f.name)
				if !force {
					if _, err := os.Stat(dest); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", dest)
					} else if !errors.Is(err, os.ErrNotExist) {
						return fmt.Errorf("stat %s: %w", dest, err)
					}
				}
				if err := os.WriteFile(dest, []byte(f.body), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", f.name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", dest)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().BoolVar(&sample, "sample", false, "also write a sample tasks.ini")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write into")
	return cmd
}
