package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd(rf *rootFlags) *cobra.Command {
	var (
		f       reportFlags
		refresh string
		notify  bool
	)
	cmd := &cobra.Command{
		Use:   "watch [tasks.ini [tasks.csv]]",
		Short: "Keep the report on screen, refreshing on a schedule and on file changes",
		Long: `watch prints the report, then prints it again on every refresh tick and
whenever the task files or the app config change on disk.

--refresh accepts a cron expression ("0 7 * * 1-5"), a Go duration ("30m")
or HH:MM ("01:30").`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ovr := f.overrides(cmd.Flags(), args)
			if cmd.Flags().Changed("refresh") {
				ovr.Refresh = &refresh
			}
			a, err := newApp(cmd, rf, ovr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Watch(ctx, notify)
		},
	}
	addReportFlags(cmd.Flags(), &f)
	_ = cmd.Flags().MarkHidden("pager")
	cmd.Flags().StringVar(&refresh, "refresh", "", "refresh schedule (default: 0 7 * * *)")
	cmd.Flags().BoolVar(&notify, "systemd-notify", true, "send READY/STOPPING to systemd when NOTIFY_SOCKET is set")
	return cmd
}
