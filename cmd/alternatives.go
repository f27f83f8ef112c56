package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/partsight/partsight-cli/internal/compat"
)

var alternativesSpecs []string

var alternativesCmd = &cobra.Command{
	Use:   "alternatives <component-id>",
	Short: "Find and rank substitute components",
	Long: `Discovers candidate substitutes by category, manufacturer, name
similarity, and declared relationships, scores them with the weighted
strategy set, and prints the ranked alternatives.

Examples:
  # Rank substitutes for a component
  partsight-cli alternatives res-0042

  # Demand a spec the stored record doesn't carry
  partsight-cli alternatives drv-0007 --spec current=2000mA`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := compat.Options{}
		for _, raw := range alternativesSpecs {
			k, v, ok := strings.Cut(raw, "=")
			if !ok {
				return eris.Errorf("invalid --spec %q, want key=value", raw)
			}
			if opts.RequiredSpecs == nil {
				opts.RequiredSpecs = map[string]string{}
			}
			opts.RequiredSpecs[k] = v
		}

		alts := env.Compat.FindAlternatives(cmd.Context(), args[0], opts)
		return printJSON(alts)
	},
}

func init() {
	alternativesCmd.Flags().StringArrayVar(&alternativesSpecs, "spec", nil, "required spec as key=value (repeatable)")
	rootCmd.AddCommand(alternativesCmd)
}
