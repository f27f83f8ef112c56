package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Stock depletion, demand, and trend predictions",
}

var predictDepletionCmd = &cobra.Command{
	Use:   "depletion <component-id>",
	Short: "Predict when a component runs out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return printJSON(env.Predictor.PredictDepletion(cmd.Context(), args[0]))
	},
}

var predictAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Batch depletion alerts for every in-stock component",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return printJSON(env.Predictor.GenerateStockAlerts(cmd.Context()))
	},
}

var demandHorizonDays int

var predictDemandCmd = &cobra.Command{
	Use:   "demand <component-id>",
	Short: "Forecast monthly demand for a component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return printJSON(env.Predictor.ForecastDemand(cmd.Context(), args[0], demandHorizonDays))
	},
}

var projectType string

var predictSuccessCmd = &cobra.Command{
	Use:   "success <component-id,component-id,...>",
	Short: "Estimate project success odds for a bill of components",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		ids := strings.Split(args[0], ",")
		return printJSON(env.Predictor.PredictProjectSuccess(cmd.Context(), ids, projectType))
	},
}

var predictTrendsCmd = &cobra.Command{
	Use:   "trends <category>",
	Short: "Bucket a category's components by usage momentum",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return printJSON(env.Predictor.ComponentTrends(cmd.Context(), args[0]))
	},
}

func init() {
	predictDemandCmd.Flags().IntVar(&demandHorizonDays, "horizon", 90, "forecast horizon in days")
	predictSuccessCmd.Flags().StringVar(&projectType, "type", "general", "project type label")
	predictCmd.AddCommand(predictDepletionCmd, predictAlertsCmd, predictDemandCmd, predictSuccessCmd, predictTrendsCmd)
	rootCmd.AddCommand(predictCmd)
}
