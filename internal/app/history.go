package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"option-pricer/internal/storage"
)

// History lists recent calculations, most recent first.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	defer closeStore()

	records, err := store.List(ctx, storage.ListOptions{
		Limit:   a.Config.ResolveLimit(opts.Limit),
		Since:   opts.Since,
		Until:   opts.Until,
		SpotMin: opts.SpotMin,
		SpotMax: opts.SpotMax,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no calculations found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTime (UTC)\tSpot\tStrike\tMaturity\tVol\tRate\tCall\tPut")
	for _, rec := range records {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.CreatedAt.UTC().Format(time.RFC3339),
			formatValue(rec.Request.Spot),
			formatValue(rec.Request.Strike),
			formatValue(rec.Request.TimeToMaturity),
			formatValue(rec.Request.Volatility),
			formatValue(rec.Request.RiskFreeRate),
			formatValue(rec.Result.CallPrice),
			formatValue(rec.Result.PutPrice),
		)
	}
	writer.Flush()
	return nil
}

// ShowCalculation prints one stored calculation with its grid cells.
func (a *App) ShowCalculation(ctx context.Context, id int64) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show calculation")
	}
	defer closeStore()

	rec, cells, err := store.GetCalculation(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("calculation %d, saved %s\n\n", rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339))
	printResult(rec.Request, rec.Result)

	if len(cells) == 0 {
		return nil
	}

	fmt.Printf("\n%d grid cells:\n", len(cells))
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Axis1 shock\tAxis2 shock\tType\tPrice")
	for _, cell := range cells {
		optionType := "put"
		if cell.Call {
			optionType = "call"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			formatValue(cell.Axis1Shock),
			formatValue(cell.Axis2Shock),
			optionType,
			formatValue(cell.Price),
		)
	}
	writer.Flush()
	return nil
}

// ClearHistory deletes all stored calculations and reports the count.
func (a *App) ClearHistory(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; nothing to clear")
	}
	defer closeStore()

	deleted, err := store.Clear(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("deleted %d calculations\n", deleted)
	return nil
}
