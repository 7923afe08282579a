package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:          "personnel-api",
		Short:        "Personnel records service: subdivisions and workers",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env files to load before reading the environment (default .env, .env.local)")

	cmd.AddCommand(newServeCmd(&envFiles))
	cmd.AddCommand(newMigrateCmd(&envFiles))
	return cmd
}
