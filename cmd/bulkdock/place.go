package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulkdock/bulkdock/pkg/worker"
)

func (a *app) placeCmd() *cobra.Command {
	var task worker.Task

	cmd := &cobra.Command{
		Use:   "place <target> <batch>",
		Short: "Place every item of one batch file (runs inside a worker job)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wc := a.cfg.Worker
			if wc.Command == "" {
				return errors.New("worker.command is not configured")
			}
			task.Target = args[0]

			placer := &worker.CommandPlacer{
				Command:         wc.Command,
				Args:            wc.Args,
				Timeout:         wc.Timeout,
				RejectExitCodes: wc.RejectExitCodes,
			}
			r := worker.NewRunner(placer,
				worker.OutputDir(a.cfg.Dirs.Output),
				worker.PayloadColumn(a.cfg.Splitter.PayloadColumn),
				worker.WithRetryAttempts(wc.MaxAttempts),
				worker.ProgressTo(a.stdout),
				worker.WithLogger(a.logger),
			)
			report, err := r.Run(cmd.Context(), task, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "placed %d of %d items into %s\n", report.Succeeded, report.Total, report.OutputPath)
			for _, f := range report.Failed {
				fmt.Fprintf(a.stdout, "  item %d %s: %s (%s after %d attempts)\n", f.Index, f.Payload, f.Kind, f.Reason, f.Attempts)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&task.Reference, "reference", "", "reference value substituted for {reference}")
	return cmd
}
