package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/partsight/partsight-cli/internal/currency"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Exchange rates and currency conversion",
}

var ratesGetCmd = &cobra.Command{
	Use:   "get <from> <to>",
	Short: "Resolve one exchange rate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		rate := env.Converter.GetRate(cmd.Context(), strings.ToUpper(args[0]), strings.ToUpper(args[1]))
		return printJSON(rate)
	},
}

var ratesConvertCmd = &cobra.Command{
	Use:   "convert <amount> <from> <to>",
	Short: "Convert an amount between currencies",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Wrapf(err, "invalid amount %q", args[0])
		}
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		from := strings.ToUpper(args[1])
		to := strings.ToUpper(args[2])
		converted := env.Converter.Convert(cmd.Context(), amount, from, to)
		fmt.Printf("%s = %s\n", currency.Format(amount, from), currency.Format(converted, to))
		return nil
	},
}

var ratesUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the rate tables for every major currency",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		updated := env.Converter.UpdateAll(cmd.Context())
		fmt.Printf("refreshed %d rate tables\n", updated)
		return nil
	},
}

func init() {
	ratesCmd.AddCommand(ratesGetCmd, ratesConvertCmd, ratesUpdateCmd)
	rootCmd.AddCommand(ratesCmd)
}
