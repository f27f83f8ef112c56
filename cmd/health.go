package main

import (
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report system health from the rolling error log",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return printJSON(env.Errors.Health())
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
