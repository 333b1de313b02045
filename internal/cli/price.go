package cli

import (
	"github.com/spf13/cobra"

	"option-pricer/internal/app"
	"option-pricer/internal/pricing"
)

var (
	priceSpot     float64
	priceStrike   float64
	priceMaturity float64
	priceVol      float64
	priceRate     float64
	priceDividend float64
	priceSave     bool
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a European call and put with Greeks",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.PriceOptions{
			Request: pricing.Request{
				Spot:           priceSpot,
				Strike:         priceStrike,
				TimeToMaturity: priceMaturity,
				Volatility:     priceVol,
				RiskFreeRate:   priceRate,
				DividendYield:  priceDividend,
			},
			Save: priceSave,
		}
		return getApp().Price(cmd.Context(), opts)
	},
}

func init() {
	priceCmd.Flags().Float64Var(&priceSpot, "spot", 100, "Underlying spot price")
	priceCmd.Flags().Float64Var(&priceStrike, "strike", 100, "Option strike price")
	priceCmd.Flags().Float64Var(&priceMaturity, "maturity", 1, "Time to maturity in years")
	priceCmd.Flags().Float64Var(&priceVol, "vol", 0.2, "Annualised volatility")
	priceCmd.Flags().Float64Var(&priceRate, "rate", 0.05, "Annualised risk-free rate")
	priceCmd.Flags().Float64Var(&priceDividend, "dividend", 0, "Continuous dividend yield")
	priceCmd.Flags().BoolVar(&priceSave, "save", false, "Persist the calculation to history")
}
