package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"option-pricer/internal/app"
	"option-pricer/internal/grid"
	"option-pricer/internal/pricing"
)

var (
	heatmapSpot     float64
	heatmapStrike   float64
	heatmapMaturity float64
	heatmapVol      float64
	heatmapRate     float64
	heatmapDividend float64
	heatmapAxis1    string
	heatmapAxis2    string
	heatmapType     string
	heatmapCSVPath  string
	heatmapPNGPath  string
	heatmapSave     bool
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Compute a price surface over two parameter axes",
	Long: `Compute option prices over a rectangular grid of two swept parameters.

Axes are given as field:min:max:steps, where field is one of
spot, strike, time_to_maturity, volatility, risk_free_rate.

Example:
  bspricer heatmap --axis1 spot:80:120:10 --axis2 volatility:0.1:0.3:10 --type call --png surface.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		axis1, err := parseAxisSpec(heatmapAxis1)
		if err != nil {
			return fmt.Errorf("invalid --axis1: %w", err)
		}
		axis2, err := parseAxisSpec(heatmapAxis2)
		if err != nil {
			return fmt.Errorf("invalid --axis2: %w", err)
		}
		optionType, err := grid.ParseOptionType(heatmapType)
		if err != nil {
			return err
		}

		opts := app.HeatmapOptions{
			Request: pricing.Request{
				Spot:           heatmapSpot,
				Strike:         heatmapStrike,
				TimeToMaturity: heatmapMaturity,
				Volatility:     heatmapVol,
				RiskFreeRate:   heatmapRate,
				DividendYield:  heatmapDividend,
			},
			Axis1:   axis1,
			Axis2:   axis2,
			Type:    optionType,
			CSVPath: heatmapCSVPath,
			PNGPath: heatmapPNGPath,
			Save:    heatmapSave,
		}
		return getApp().Heatmap(cmd.Context(), opts)
	},
}

// parseAxisSpec decodes a field:min:max:steps axis description.
func parseAxisSpec(raw string) (grid.AxisSpec, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 4 {
		return grid.AxisSpec{}, fmt.Errorf("expected field:min:max:steps, got %q", raw)
	}

	field, err := grid.ParseAxisField(parts[0])
	if err != nil {
		return grid.AxisSpec{}, err
	}
	min, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return grid.AxisSpec{}, fmt.Errorf("parse min %q: %w", parts[1], err)
	}
	max, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return grid.AxisSpec{}, fmt.Errorf("parse max %q: %w", parts[2], err)
	}
	steps, err := strconv.Atoi(parts[3])
	if err != nil {
		return grid.AxisSpec{}, fmt.Errorf("parse steps %q: %w", parts[3], err)
	}

	return grid.AxisSpec{Field: field, Min: min, Max: max, Steps: steps}, nil
}

func init() {
	heatmapCmd.Flags().Float64Var(&heatmapSpot, "spot", 100, "Underlying spot price")
	heatmapCmd.Flags().Float64Var(&heatmapStrike, "strike", 100, "Option strike price")
	heatmapCmd.Flags().Float64Var(&heatmapMaturity, "maturity", 1, "Time to maturity in years")
	heatmapCmd.Flags().Float64Var(&heatmapVol, "vol", 0.2, "Annualised volatility")
	heatmapCmd.Flags().Float64Var(&heatmapRate, "rate", 0.05, "Annualised risk-free rate")
	heatmapCmd.Flags().Float64Var(&heatmapDividend, "dividend", 0, "Continuous dividend yield")
	heatmapCmd.Flags().StringVar(&heatmapAxis1, "axis1", "spot:80:120:10", "First axis as field:min:max:steps")
	heatmapCmd.Flags().StringVar(&heatmapAxis2, "axis2", "volatility:0.1:0.3:10", "Second axis as field:min:max:steps")
	heatmapCmd.Flags().StringVar(&heatmapType, "type", "call", "Option type: call or put")
	heatmapCmd.Flags().StringVar(&heatmapCSVPath, "csv", "", "Path to write the surface as CSV")
	heatmapCmd.Flags().StringVar(&heatmapPNGPath, "png", "", "Path to write a PNG profile chart")
	heatmapCmd.Flags().BoolVar(&heatmapSave, "save", false, "Persist the calculation and grid cells to history")
}
