package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func (a *app) createDirectoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-directories",
		Short: "Create the configured working directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dirs := a.cfg.Directories()
			if a.cfg.Scheduler.AuditLog != "" {
				dirs = append(dirs, filepath.Dir(a.cfg.Scheduler.AuditLog))
			}
			for _, dir := range dirs {
				if dir == "" || dir == "." {
					continue
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create directory %s: %w", dir, err)
				}
				fmt.Fprintln(a.stdout, dir)
			}
			return nil
		},
	}
}
