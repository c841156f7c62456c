package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulkdock/bulkdock/pkg/config"
)

func (a *app) configureCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "configure <key> <value>",
		Short: "Set a configuration value in the config file",
		Example: `  bulkdock configure scheduler.partition gpu
  bulkdock configure worker.timeout 45m
  bulkdock configure --list`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, key := range config.Keys() {
					fmt.Fprintln(a.stdout, key)
				}
				return nil
			}
			path := a.configPath
			if path == "" {
				path = config.DefaultFileName
			}
			if err := config.Set(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s = %s (%s)\n", args[0], args[1], path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list settable keys")
	return cmd
}
