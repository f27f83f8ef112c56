package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/partsight/partsight-cli/internal/inventory"
	"github.com/partsight/partsight-cli/internal/model"
)

var (
	storeSeed bool
	storeFile string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local inventory store",
}

var storeInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the inventory schema, optionally with demo data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Inventory.Driver != "sqlite" {
			return eris.Errorf("store init requires the sqlite inventory driver, got %q", cfg.Inventory.Driver)
		}
		store, err := inventory.NewSQLite(cfg.Inventory.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		switch {
		case storeFile != "":
			n, err := importInventoryFile(ctx, store, storeFile)
			if err != nil {
				return err
			}
			fmt.Printf("inventory schema ready, %d components imported\n", n)
		case storeSeed:
			n, err := seedDemoData(ctx, store)
			if err != nil {
				return err
			}
			fmt.Printf("inventory schema ready, %d demo components seeded\n", n)
		default:
			fmt.Println("inventory schema ready")
		}
		return nil
	},
}

// seedDemoData loads a small electronics inventory so every command has
// something to work with out of the box.
func seedDemoData(ctx context.Context, store *inventory.SQLite) (int, error) {
	now := time.Now().UTC()
	components := []model.Component{
		{
			ID: "res-0042", Name: "10k Ohm Resistor 1/4W", Category: "resistor",
			Manufacturer: "OhmCo", Condition: model.ConditionNew,
			Quantity: 120, UnitPrice: 0.05, Currency: "USD",
			RelatedIDs: []string{"res-0043"},
			CreatedAt:  now.AddDate(0, -6, 0),
		},
		{
			ID: "res-0043", Name: "10k Ohm Resistor 1/2W", Category: "resistor",
			Manufacturer: "OhmCo", Condition: model.ConditionNew,
			Quantity: 30, UnitPrice: 0.08, Currency: "USD",
			CreatedAt: now.AddDate(0, -6, 0),
		},
		{
			ID: "sen-0007", Name: "BME280 Temperature Humidity Sensor", Category: "sensor",
			Manufacturer: "Bosch", Condition: model.ConditionNew,
			Quantity: 12, UnitPrice: 6.90, Currency: "USD",
			Specs:     map[string]string{"voltage": "1.8-3.6V", "protocols": "i2c,spi"},
			CreatedAt: now.AddDate(0, -4, 0),
		},
		{
			ID: "sen-0008", Name: "BMP280 Pressure Sensor Breakout", Category: "sensor",
			Manufacturer: "Bosch", Condition: model.ConditionUsed,
			Quantity: 4, UnitPrice: 4.20, Currency: "USD",
			Specs:     map[string]string{"voltage": "1.8-3.6V", "protocols": "i2c,spi"},
			CreatedAt: now.AddDate(0, -3, 0),
		},
		{
			ID: "drv-0007", Name: "DRV8833 Motor Driver", Category: "driver",
			Manufacturer: "TI", Condition: model.ConditionNew,
			Quantity: 8, UnitPrice: 3.10, Currency: "USD",
			Specs:     map[string]string{"voltage": "2.7-10.8V", "current": "1500mA"},
			CreatedAt: now.AddDate(0, -2, 0),
		},
	}
	metrics := []model.UsageMetrics{
		{ComponentID: "res-0042", TotalUsed: 240, ProjectCount: 14, LastUsed: now.AddDate(0, 0, -3), Frequency: model.FrequencyHigh, SuccessRate: 0.93},
		{ComponentID: "res-0043", TotalUsed: 25, ProjectCount: 4, LastUsed: now.AddDate(0, 0, -40), Frequency: model.FrequencyLow, SuccessRate: 0.88},
		{ComponentID: "sen-0007", TotalUsed: 18, ProjectCount: 6, LastUsed: now.AddDate(0, 0, -5), Frequency: model.FrequencyMedium, SuccessRate: 0.81},
		{ComponentID: "drv-0007", TotalUsed: 9, ProjectCount: 3, LastUsed: now.AddDate(0, 0, -12), Frequency: model.FrequencyMedium, SuccessRate: 0.55},
	}

	for _, c := range components {
		if err := store.Put(ctx, c); err != nil {
			return 0, err
		}
	}
	for _, m := range metrics {
		if err := store.PutMetrics(ctx, m); err != nil {
			return 0, err
		}
	}
	return len(components), nil
}

func init() {
	storeInitCmd.Flags().BoolVar(&storeSeed, "seed", false, "load demo components and usage metrics")
	storeInitCmd.Flags().StringVar(&storeFile, "file", "", "import components and metrics from a YAML file")
	storeCmd.AddCommand(storeInitCmd)
	rootCmd.AddCommand(storeCmd)
}
