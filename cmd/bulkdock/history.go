package main

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/monitor"
)

func (a *app) historyCmd() *cobra.Command {
	var (
		source string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history [submission-id]",
		Short: "List recorded submissions, or the jobs of one submission",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			if store == nil {
				return errors.New("history needs the job store: set store.enabled")
			}

			if len(args) == 1 {
				jobs, err := store.GetJobsBySubmission(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renderJobs(a.stdout, jobs)
				return nil
			}

			subs, err := store.ListSubmissions(cmd.Context(), source, limit)
			if err != nil {
				return err
			}
			renderSubmissions(a.stdout, subs)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "only submissions of this source key")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum submissions listed")
	return cmd
}

func renderSubmissions(w io.Writer, subs []*core.Submission) {
	table := monitor.NewTable(w, []string{"Submission", "Created", "Source", "Target", "Batches", "Items", "Collation"})
	for _, s := range subs {
		table.Append([]string{
			s.ID,
			s.CreatedAt.Local().Format(time.DateTime),
			s.SourceKey,
			s.Target,
			strconv.Itoa(s.BatchCount),
			strconv.Itoa(s.TotalItems),
			s.CollationJobID,
		})
	}
	table.Render()
}

func renderJobs(w io.Writer, jobs []*core.SubmittedJob) {
	table := monitor.NewTable(w, []string{"Job ID", "Role", "Batch", "Name", "After", "Log"})
	for _, j := range jobs {
		batch := ""
		if j.BatchIndex >= 0 {
			batch = strconv.Itoa(j.BatchIndex)
		}
		table.Append([]string{
			j.JobID,
			string(j.Role),
			batch,
			j.JobName,
			strings.Join(j.DependsOn, ","),
			j.LogPath,
		})
	}
	table.Render()
}
