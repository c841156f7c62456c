package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bulkdock/bulkdock/pkg/monitor"
	"github.com/bulkdock/bulkdock/pkg/schedule"
)

func (a *app) statusCmd() *cobra.Command {
	var (
		watch    bool
		interval string
		noColor  bool
		prefix   string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show progress of active bulkdock jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if prefix == "" {
				prefix = a.cfg.Scheduler.JobPrefix
			}
			m := monitor.New(a.scheduler(),
				monitor.LogDir(a.cfg.Dirs.Logs),
				monitor.WithLogger(a.logger),
			)
			opts := monitor.RenderOptions{Color: !noColor && !color.NoColor}

			if !watch {
				rows, err := m.Sample(cmd.Context(), prefix)
				if err != nil {
					return err
				}
				a.printStatus(rows, opts)
				return nil
			}

			s, err := schedule.Parse(interval)
			if err != nil {
				return fmt.Errorf("--interval: %w", err)
			}
			return m.Watch(cmd.Context(), s, prefix, func(rows []monitor.Row, err error) error {
				if err != nil {
					a.logger.Warn("sampling jobs failed", "error", err)
					return nil
				}
				if opts.Color {
					fmt.Fprint(a.stdout, "\033[H\033[2J")
				}
				fmt.Fprintf(a.stdout, "%s\n", time.Now().Format(time.DateTime))
				a.printStatus(rows, opts)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh until interrupted")
	cmd.Flags().StringVar(&interval, "interval", "10s", "refresh interval: a duration or a cron expression")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored bands")
	cmd.Flags().StringVar(&prefix, "prefix", "", "job name prefix (default scheduler.job_prefix)")
	return cmd
}

func (a *app) printStatus(rows []monitor.Row, opts monitor.RenderOptions) {
	if len(rows) == 0 {
		fmt.Fprintln(a.stdout, "no active jobs")
		return
	}
	monitor.Render(a.stdout, rows, opts)
}

