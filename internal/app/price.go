package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"option-pricer/internal/pricing"
)

// Price values one option, prints the result, and optionally persists it.
// The computed result is always printed before persistence is attempted, so
// a storage failure never discards what the user asked for.
func (a *App) Price(ctx context.Context, opts PriceOptions) error {
	res, err := pricing.Price(opts.Request)
	if err != nil {
		return err
	}

	printResult(opts.Request, res)

	if !opts.Save {
		return nil
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("database not configured; cannot save calculation")
	}
	defer closeStore()

	rec, err := store.Append(ctx, opts.Request, res)
	if err != nil {
		a.Logger.Error().Err(err).Msg("calculation computed but not persisted")
		return err
	}

	a.Logger.Info().Int64("id", rec.ID).Time("created_at", rec.CreatedAt).Msg("calculation saved")
	return nil
}

func printResult(req pricing.Request, res pricing.Result) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(writer, "\tCall\tPut")
	fmt.Fprintf(writer, "Price\t%s\t%s\n", formatValue(res.CallPrice), formatValue(res.PutPrice))
	fmt.Fprintf(writer, "Delta\t%s\t%s\n", formatValue(res.DeltaCall), formatValue(res.DeltaPut))
	fmt.Fprintf(writer, "Gamma\t%s\t%s\n", formatValue(res.Gamma), formatValue(res.Gamma))
	fmt.Fprintf(writer, "Vega\t%s\t%s\n", formatValue(res.Vega), formatValue(res.Vega))
	fmt.Fprintf(writer, "Theta\t%s\t%s\n", formatValue(res.ThetaCall), formatValue(res.ThetaPut))
	fmt.Fprintf(writer, "Rho\t%s\t%s\n", formatValue(res.RhoCall), formatValue(res.RhoPut))
	writer.Flush()

	fmt.Printf("\nspot=%s strike=%s maturity=%sy vol=%s rate=%s dividend=%s\n",
		formatValue(req.Spot),
		formatValue(req.Strike),
		formatValue(req.TimeToMaturity),
		formatValue(req.Volatility),
		formatValue(req.RiskFreeRate),
		formatValue(req.DividendYield),
	)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
