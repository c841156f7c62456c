package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bulkdock/bulkdock/pkg/config"
	"github.com/bulkdock/bulkdock/pkg/core"
	"github.com/bulkdock/bulkdock/pkg/logging"
	"github.com/bulkdock/bulkdock/pkg/scheduler"
	"github.com/bulkdock/bulkdock/pkg/splitter"
	"github.com/bulkdock/bulkdock/pkg/storage"
)

// app carries what every subcommand shares once the root has loaded configuration.
type app struct {
	configPath string
	logLevel   string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error

	stdout io.Writer
	stderr io.Writer
	// runner executes scheduler tools; nil means the real binaries.
	runner scheduler.Runner
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, logger: slog.Default()}
}

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:          "bulkdock",
		Short:        "Batch submission and progress tracking for SLURM screening runs",
		Long:         `Split a large input into bounded batches, submit one worker job per batch and a collation job that waits on all of them, then watch progress from the job logs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./bulkdock.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		a.submitCmd(),
		a.statusCmd(),
		a.combineCmd(),
		a.placeCmd(),
		a.historyCmd(),
		a.createDirectoriesCmd(),
		a.extractCmd(),
		a.configureCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		Stderr: a.stderr,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.closeLog = closeLog
	return nil
}

func (a *app) scheduler() *scheduler.Slurm {
	opts := []scheduler.Option{
		scheduler.SubmitCommand(a.cfg.Scheduler.SubmitCommand),
		scheduler.ListCommand(a.cfg.Scheduler.ListCommand),
		scheduler.User(a.cfg.Scheduler.User),
		scheduler.WithLogger(a.logger),
	}
	if a.runner != nil {
		opts = append(opts, scheduler.WithRunner(a.runner))
	}
	return scheduler.NewSlurm(opts...)
}

func (a *app) splitter() *splitter.Splitter {
	return splitter.New(
		splitter.PayloadColumn(a.cfg.Splitter.PayloadColumn),
		splitter.WithLogger(a.logger),
	)
}

// openStore returns nil when the store is disabled.
func (a *app) openStore(ctx context.Context) (core.Store, func() error, error) {
	if !a.cfg.Store.Enabled {
		return nil, func() error { return nil }, nil
	}
	st, err := storage.Open(a.cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("migrate store: %w", err)
	}
	return st, st.Close, nil
}
