package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulkdock/bulkdock/pkg/collate"
	"github.com/bulkdock/bulkdock/pkg/publish"
)

func (a *app) combineCmd() *cobra.Command {
	var (
		req       collate.Request
		noPublish bool
	)

	cmd := &cobra.Command{
		Use:   "combine <target> <source>",
		Short: "Merge the worker outputs of a source into one artifact",
		Long:  `Merge every worker output of <source> found in the output directory, in batch order. Missing batches are reported but do not fail the merge; the collation job runs after its workers whatever their exit status.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.SourcePath = a.resolveInput(args[1])
			c := collate.New(a.cfg.Dirs.Output,
				collate.ResultDir(a.cfg.Dirs.Results),
				collate.WithRowCounter(a.splitter()),
				collate.WithLogger(a.logger),
			)
			res, err := c.Collate(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "merged %d of %d batches of %s for %s into %s\n",
				len(res.Kept), res.ExpectedBatchCount, res.SourceKey, args[0], res.OutputPath)
			if err := res.Incomplete(); err != nil {
				fmt.Fprintf(a.stdout, "warning: %v\n", err)
			}

			pc := publish.Config{
				Bucket:   a.cfg.Publish.Bucket,
				Prefix:   a.cfg.Publish.Prefix,
				Region:   a.cfg.Publish.Region,
				Endpoint: a.cfg.Publish.Endpoint,
			}
			if noPublish || !pc.Enabled() {
				return nil
			}
			p, err := publish.New(cmd.Context(), pc, publish.WithLogger(a.logger))
			if err != nil {
				return err
			}
			url, err := p.Publish(cmd.Context(), res.OutputPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "published %s\n", url)
			return nil
		},
	}
	cmd.Flags().IntVar(&req.BatchSize, "batch-size", 0, "batch size the source was split with (0 for a single batch)")
	cmd.Flags().StringVar(&req.OutputName, "output", "", "merged file name (default <source>_combined.<ext>)")
	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "skip the S3 upload even when publish.bucket is set")
	return cmd
}
