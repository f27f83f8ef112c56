package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/partsight/partsight-cli/internal/model"
)

var (
	alertComponent string
	alertType      string
	alertThreshold float64
	alertTarget    float64
	alertChannel   string
	alertActive    bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage and evaluate price alerts",
}

var alertsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a price alert",
	Long: `Creates a price alert evaluated on every scheduled market refresh.

Examples:
  # Alert on a 15% price drop
  partsight-cli alerts create --component res-0042 --type price_drop --threshold 15

  # Alert when any supplier goes below a target price
  partsight-cli alerts create --component res-0042 --type target_price --target 4.50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		created, err := env.Market.CreateAlert(cmd.Context(), model.PriceAlert{
			ComponentID: alertComponent,
			Type:        model.PriceAlertType(alertType),
			Threshold:   alertThreshold,
			TargetPrice: alertTarget,
			Channel:     alertChannel,
		})
		if err != nil {
			return err
		}
		return printJSON(created)
	},
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List price alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		alerts, err := env.Market.ListAlerts(cmd.Context(), alertComponent)
		if err != nil {
			return err
		}
		return printJSON(alerts)
	},
}

var alertsUpdateCmd = &cobra.Command{
	Use:   "update <alert-id>",
	Short: "Update a price alert's thresholds or active state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		alerts, err := env.Market.ListAlerts(cmd.Context(), "")
		if err != nil {
			return err
		}
		for _, a := range alerts {
			if a.ID != args[0] {
				continue
			}
			if cmd.Flags().Changed("threshold") {
				a.Threshold = alertThreshold
			}
			if cmd.Flags().Changed("target") {
				a.TargetPrice = alertTarget
			}
			if cmd.Flags().Changed("channel") {
				a.Channel = alertChannel
			}
			if cmd.Flags().Changed("active") {
				a.Active = alertActive
			}
			if err := env.Market.UpdateAlert(cmd.Context(), a); err != nil {
				return err
			}
			return printJSON(a)
		}
		return eris.Errorf("alert %s not found", args[0])
	},
}

var alertsDeleteCmd = &cobra.Command{
	Use:   "delete <alert-id>",
	Short: "Delete a price alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return env.Market.DeleteAlert(cmd.Context(), args[0])
	},
}

var alertsEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate every active alert against current prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()
		return printJSON(env.Market.EvaluateAlerts(cmd.Context()))
	},
}

func init() {
	alertsCreateCmd.Flags().StringVar(&alertComponent, "component", "", "component id (required)")
	alertsCreateCmd.Flags().StringVar(&alertType, "type", "price_drop", "alert type: price_drop, price_increase, target_price")
	alertsCreateCmd.Flags().Float64Var(&alertThreshold, "threshold", 0, "percent change threshold for relative alerts")
	alertsCreateCmd.Flags().Float64Var(&alertTarget, "target", 0, "target price for target_price alerts")
	alertsCreateCmd.Flags().StringVar(&alertChannel, "channel", "", "notification channel label")
	alertsCreateCmd.MarkFlagRequired("component")
	alertsListCmd.Flags().StringVar(&alertComponent, "component", "", "filter by component id")
	alertsUpdateCmd.Flags().Float64Var(&alertThreshold, "threshold", 0, "percent change threshold")
	alertsUpdateCmd.Flags().Float64Var(&alertTarget, "target", 0, "target price")
	alertsUpdateCmd.Flags().StringVar(&alertChannel, "channel", "", "notification channel label")
	alertsUpdateCmd.Flags().BoolVar(&alertActive, "active", true, "enable or disable the alert")
	alertsCmd.AddCommand(alertsCreateCmd, alertsListCmd, alertsUpdateCmd, alertsDeleteCmd, alertsEvaluateCmd)
	rootCmd.AddCommand(alertsCmd)
}
