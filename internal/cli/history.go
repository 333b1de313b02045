package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"option-pricer/internal/app"
)

var (
	historyLimit   int
	historySince   string
	historyUntil   string
	historySpotMin float64
	historySpotMax float64
	historyShowID  int64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved calculations",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.HistoryOptions{
			Limit: historyLimit,
		}

		if historySince != "" {
			since, err := time.Parse(time.RFC3339, historySince)
			if err != nil {
				return fmt.Errorf("invalid --since value: %w", err)
			}
			opts.Since = &since
		}
		if historyUntil != "" {
			until, err := time.Parse(time.RFC3339, historyUntil)
			if err != nil {
				return fmt.Errorf("invalid --until value: %w", err)
			}
			opts.Until = &until
		}
		if cmd.Flags().Changed("spot-min") {
			opts.SpotMin = &historySpotMin
		}
		if cmd.Flags().Changed("spot-max") {
			opts.SpotMax = &historySpotMax
		}

		return getApp().History(cmd.Context(), opts)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display one saved calculation with its grid cells",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyShowID <= 0 {
			return fmt.Errorf("--id must be greater than zero")
		}
		return getApp().ShowCalculation(cmd.Context(), historyShowID)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved calculations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ClearHistory(cmd.Context())
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Number of calculations to display (defaults to config)")
	historyCmd.Flags().StringVar(&historySince, "since", "", "Lower bound timestamp (RFC3339, inclusive)")
	historyCmd.Flags().StringVar(&historyUntil, "until", "", "Upper bound timestamp (RFC3339, exclusive)")
	historyCmd.Flags().Float64Var(&historySpotMin, "spot-min", 0, "Only show calculations with spot at or above this value")
	historyCmd.Flags().Float64Var(&historySpotMax, "spot-max", 0, "Only show calculations with spot at or below this value")

	historyShowCmd.Flags().Int64Var(&historyShowID, "id", 0, "Calculation id to display")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}
