package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bulkdock/bulkdock/pkg/target"
)

func (a *app) extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <target>",
		Short: "Unpack a target archive into the target directory",
		Long:  `Unpack <dirs.target>/<target>.zip into <dirs.target>/<target>, overwriting files that already exist.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := target.Extract(a.cfg.Dirs.Target, args[0])
			if err != nil {
				return err
			}
			a.logger.Info("target extracted", "target", args[0], "files", n)
			fmt.Fprintf(a.stdout, "extracted %d files into %s\n", n, filepath.Join(a.cfg.Dirs.Target, args[0]))
			return nil
		},
	}
}
