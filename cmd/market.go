package main

import (
	"github.com/spf13/cobra"
)

var (
	marketCurrency string
	marketRefresh  bool
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Supplier market data, comparisons, and trends",
}

var marketFetchCmd = &cobra.Command{
	Use:   "fetch <component-id>",
	Short: "Fetch normalized supplier offers for a component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		items := env.Market.FetchMarketData(cmd.Context(), args[0], marketRefresh, marketCurrency)
		return printJSON(items)
	},
}

var marketCompareCmd = &cobra.Command{
	Use:   "compare <component-id>",
	Short: "Compare supplier prices and pick the cheapest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return printJSON(env.Market.PriceComparison(cmd.Context(), args[0], marketCurrency))
	},
}

var marketTrendsCmd = &cobra.Command{
	Use:   "trends <component-id>",
	Short: "Analyze price movement over the stored history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return printJSON(env.Market.AnalyzeTrends(cmd.Context(), args[0], marketCurrency))
	},
}

func init() {
	marketCmd.PersistentFlags().StringVar(&marketCurrency, "currency", "", "target currency (default from config)")
	marketFetchCmd.Flags().BoolVar(&marketRefresh, "refresh", false, "bypass the cache and query suppliers")
	marketCmd.AddCommand(marketFetchCmd, marketCompareCmd, marketTrendsCmd)
	rootCmd.AddCommand(marketCmd)
}
