package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"

	"option-pricer/internal/grid"
	"option-pricer/internal/pricing"
)

// Heatmap builds a sensitivity grid over two parameter axes, exports it as
// CSV and/or a PNG profile chart, and optionally persists the calculation
// with every grid cell. Like Price, the grid is computed and exported before
// persistence runs.
func (a *App) Heatmap(ctx context.Context, opts HeatmapOptions) error {
	if opts.Axis1.Steps > a.Config.Grid.MaxSteps || opts.Axis2.Steps > a.Config.Grid.MaxSteps {
		return &pricing.ValidationError{
			Field:  "axis.steps",
			Reason: fmt.Sprintf("at most %d steps per axis", a.Config.Grid.MaxSteps),
		}
	}

	g, err := grid.Build(opts.Request, opts.Axis1, opts.Axis2, opts.Type)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Str("option_type", string(opts.Type)).
		Str("axis1", opts.Axis1.Field.String()).
		Str("axis2", opts.Axis2.Field.String()).
		Int("cells", opts.Axis1.Steps*opts.Axis2.Steps).
		Msg("sensitivity grid computed")

	if opts.CSVPath != "" {
		if err := writeGridCSV(opts.CSVPath, g); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if opts.PNGPath != "" {
		if err := a.writeGridPNG(opts.PNGPath, g); err != nil {
			return fmt.Errorf("write png: %w", err)
		}
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		printGridSummary(g)
	}

	if !opts.Save {
		return nil
	}

	res, err := pricing.Price(opts.Request)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("database not configured; cannot save calculation")
	}
	defer closeStore()

	cells := g.Cells(opts.Request)
	rec, err := store.AppendGrid(ctx, opts.Request, res, cells)
	if err != nil {
		a.Logger.Error().Err(err).Msg("grid computed but not persisted")
		return err
	}

	a.Logger.Info().Int64("id", rec.ID).Int("cells", len(cells)).Msg("grid saved")
	return nil
}

func printGridSummary(g *grid.Grid) {
	fmt.Printf("%s price surface: %s x %s, %dx%d cells\n",
		g.OptionType, g.Axis1.Field, g.Axis2.Field, len(g.Axis1Values), len(g.Axis2Values))

	corner := func(i, j int) string {
		return fmt.Sprintf("(%g, %g)=%.4f", g.Axis1Values[i], g.Axis2Values[j], g.Prices[i][j])
	}
	last1 := len(g.Axis1Values) - 1
	last2 := len(g.Axis2Values) - 1
	fmt.Printf("corners: %s %s %s %s\n", corner(0, 0), corner(0, last2), corner(last1, 0), corner(last1, last2))
}

// writeGridCSV emits the surface as a matrix: first column axis1 values,
// header row axis2 values.
func writeGridCSV(path string, g *grid.Grid) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := make([]string, 0, len(g.Axis2Values)+1)
	header = append(header, fmt.Sprintf("%s\\%s", g.Axis1.Field, g.Axis2.Field))
	for _, v := range g.Axis2Values {
		header = append(header, formatAxisValue(v))
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, v1 := range g.Axis1Values {
		record := make([]string, 0, len(g.Axis2Values)+1)
		record = append(record, formatAxisValue(v1))
		for _, price := range g.Prices[i] {
			record = append(record, strconv.FormatFloat(price, 'f', 6, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// writeGridPNG renders the surface as price-vs-axis1 curves, one series per
// axis2 slice, downsampled to the configured series cap.
func (a *App) writeGridPNG(path string, g *grid.Grid) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	series := make([]chart.Series, 0, a.Config.Export.MaxSeries)
	for _, j := range sliceIndices(len(g.Axis2Values), a.Config.Export.MaxSeries) {
		y := make([]float64, len(g.Axis1Values))
		for i := range g.Axis1Values {
			y[i] = g.Prices[i][j]
		}
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%s=%s", g.Axis2.Field, formatAxisValue(g.Axis2Values[j])),
			XValues: g.Axis1Values,
			YValues: y,
		})
	}

	graph := chart.Chart{
		Width:  a.Config.Export.PNGWidth,
		Height: a.Config.Export.PNGHeight,
		XAxis: chart.XAxis{
			Name: g.Axis1.Field.String(),
		},
		YAxis: chart.YAxis{
			Name: fmt.Sprintf("%s price", g.OptionType),
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

// sliceIndices picks up to max evenly spaced indices over [0, n), always
// keeping both endpoints. A cap below 2 degrades to the first index alone;
// the spacing arithmetic needs at least two slots.
func sliceIndices(n, max int) []int {
	if n <= 0 {
		return nil
	}
	if max < 2 {
		return []int{0}
	}
	if n <= max {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	out := make([]int, 0, max)
	step := float64(n-1) / float64(max-1)
	prev := -1
	for i := 0; i < max; i++ {
		idx := int(step*float64(i) + 0.5)
		if idx >= n {
			idx = n - 1
		}
		if idx != prev {
			out = append(out, idx)
			prev = idx
		}
	}
	return out
}

func formatAxisValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
