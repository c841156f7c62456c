package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bulkdock/bulkdock"
	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/submit"
)

func (a *app) submitCmd() *cobra.Command {
	var req submit.Request

	cmd := &cobra.Command{
		Use:   "submit <source> <target>",
		Short: "Split a source file and submit worker and collation jobs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.SourcePath = a.resolveInput(args[0])
			req.Target = args[1]
			if !cmd.Flags().Changed("batch-size") {
				req.BatchSize = a.cfg.Splitter.BatchSize
			}
			if !cmd.Flags().Changed("stagger") {
				req.Stagger = a.cfg.Scheduler.Stagger
			}

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			opts := []submit.Option{
				submit.WithSplitter(a.splitter()),
				submit.WithLogger(a.logger),
			}
			if store != nil {
				opts = append(opts, submit.WithStore(store))
			}
			orch := submit.New(bulkdock.SubmitConfigFrom(a.cfg), a.scheduler(), opts...)

			res, err := orch.Submit(cmd.Context(), req)
			if res != nil {
				a.printSubmission(res)
			}
			var partial *core.PartialSubmissionError
			if errors.As(err, &partial) {
				fmt.Fprintf(a.stdout, "submission incomplete: %d of %d jobs accepted, they are still queued\n",
					len(partial.WorkerJobIDs), partial.Total)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&req.BatchSize, "batch-size", 0, "items per worker job (0 submits one batch; default splitter.batch_size)")
	cmd.Flags().DurationVar(&req.Stagger, "stagger", 0, "delay between worker submissions (default scheduler.stagger)")
	cmd.Flags().StringVar(&req.DependsOn, "after", "", "existing job id every worker waits on")
	cmd.Flags().StringVar(&req.Reference, "reference", "", "reference value forwarded to every placement job")
	return cmd
}

// resolveInput falls back to the input directory for bare file names.
func (a *app) resolveInput(path string) string {
	if _, err := os.Stat(path); err == nil || filepath.IsAbs(path) || a.cfg.Dirs.Input == "" {
		return path
	}
	candidate := filepath.Join(a.cfg.Dirs.Input, path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

func (a *app) printSubmission(res *submit.Result) {
	if res.SubmissionID != "" {
		fmt.Fprintf(a.stdout, "submission %s\n", res.SubmissionID)
	}
	for _, b := range res.Batches {
		if b.JobID == "" {
			continue
		}
		fmt.Fprintf(a.stdout, "  worker %s  batch %03d  %d items  %s\n", b.JobID, b.BatchIndex, b.ItemCount, b.JobName)
	}
	if res.CollationJobID != "" {
		fmt.Fprintf(a.stdout, "  collation %s  after %s\n", res.CollationJobID, strings.Join(res.WorkerJobIDs, ","))
	}
}
