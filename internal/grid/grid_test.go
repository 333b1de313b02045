package grid

import (
	"errors"
	"math"
	"testing"

	"option-pricer/internal/pricing"
)

var baseRequest = pricing.Request{
	Spot:           100,
	Strike:         100,
	TimeToMaturity: 1,
	Volatility:     0.2,
	RiskFreeRate:   0.05,
}

func TestBuildDimensionsAndOrdering(t *testing.T) {
	axis1 := AxisSpec{Field: AxisSpot, Min: 80, Max: 120, Steps: 5}
	axis2 := AxisSpec{Field: AxisVolatility, Min: 0.1, Max: 0.3, Steps: 3}

	g, err := Build(baseRequest, axis1, axis2, Call)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(g.Axis1Values) != 5 || len(g.Axis2Values) != 3 {
		t.Fatalf("axis lengths = %d, %d; want 5, 3", len(g.Axis1Values), len(g.Axis2Values))
	}
	if len(g.Prices) != 5 {
		t.Fatalf("rows = %d, want 5", len(g.Prices))
	}
	for i, row := range g.Prices {
		if len(row) != 3 {
			t.Fatalf("row %d has %d columns, want 3", i, len(row))
		}
	}

	if g.Axis1Values[0] != 80 || g.Axis1Values[4] != 120 {
		t.Fatalf("axis1 endpoints %g..%g, want 80..120", g.Axis1Values[0], g.Axis1Values[4])
	}
	if g.Axis2Values[0] != 0.1 || g.Axis2Values[2] != 0.3 {
		t.Fatalf("axis2 endpoints %g..%g, want 0.1..0.3", g.Axis2Values[0], g.Axis2Values[2])
	}
	for i := 1; i < len(g.Axis1Values); i++ {
		if g.Axis1Values[i] <= g.Axis1Values[i-1] {
			t.Fatalf("axis1 not strictly increasing at %d: %v", i, g.Axis1Values)
		}
	}
	for j := 1; j < len(g.Axis2Values); j++ {
		if g.Axis2Values[j] <= g.Axis2Values[j-1] {
			t.Fatalf("axis2 not strictly increasing at %d: %v", j, g.Axis2Values)
		}
	}
}

func TestBuildMatchesEngine(t *testing.T) {
	axis1 := AxisSpec{Field: AxisSpot, Min: 90, Max: 110, Steps: 3}
	axis2 := AxisSpec{Field: AxisVolatility, Min: 0.15, Max: 0.25, Steps: 3}

	g, err := Build(baseRequest, axis1, axis2, Put)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Prices[i][j] must be the engine's answer for axis1 value i, axis2
	// value j, everything else from the base request.
	for i, spot := range g.Axis1Values {
		for j, vol := range g.Axis2Values {
			req := baseRequest
			req.Spot = spot
			req.Volatility = vol
			res, err := pricing.Price(req)
			if err != nil {
				t.Fatalf("reference price failed: %v", err)
			}
			if math.Abs(g.Prices[i][j]-res.PutPrice) > 1e-12 {
				t.Fatalf("cell (%d,%d) = %.12f, engine says %.12f", i, j, g.Prices[i][j], res.PutPrice)
			}
		}
	}
}

func TestBuildCallGridMonotoneInSpot(t *testing.T) {
	axis1 := AxisSpec{Field: AxisSpot, Min: 50, Max: 150, Steps: 11}
	axis2 := AxisSpec{Field: AxisTimeToMaturity, Min: 0.25, Max: 1, Steps: 4}

	g, err := Build(baseRequest, axis1, axis2, Call)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for j := range g.Axis2Values {
		for i := 1; i < len(g.Axis1Values); i++ {
			if g.Prices[i][j] < g.Prices[i-1][j] {
				t.Fatalf("call price should not decrease in spot: col %d row %d", j, i)
			}
		}
	}
}

func TestBuildValidation(t *testing.T) {
	okAxis := AxisSpec{Field: AxisSpot, Min: 80, Max: 120, Steps: 5}
	volAxis := AxisSpec{Field: AxisVolatility, Min: 0.1, Max: 0.3, Steps: 5}

	cases := []struct {
		name  string
		axis1 AxisSpec
		axis2 AxisSpec
		opt   OptionType
	}{
		{"min above max", AxisSpec{Field: AxisSpot, Min: 120, Max: 80, Steps: 5}, volAxis, Call},
		{"min equals max", AxisSpec{Field: AxisSpot, Min: 100, Max: 100, Steps: 5}, volAxis, Call},
		{"one step", AxisSpec{Field: AxisSpot, Min: 80, Max: 120, Steps: 1}, volAxis, Call},
		{"steps over cap", AxisSpec{Field: AxisSpot, Min: 80, Max: 120, Steps: MaxSteps + 1}, volAxis, Call},
		{"same field", okAxis, AxisSpec{Field: AxisSpot, Min: 90, Max: 110, Steps: 5}, Call},
		{"bad option type", okAxis, volAxis, OptionType("straddle")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(baseRequest, tc.axis1, tc.axis2, tc.opt)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *pricing.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *pricing.ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestBuildRejectsRangeCrossingDomain(t *testing.T) {
	// A volatility axis starting at zero violates the engine invariants and
	// must fail the whole build, not return a partial grid.
	axis1 := AxisSpec{Field: AxisSpot, Min: 80, Max: 120, Steps: 3}
	axis2 := AxisSpec{Field: AxisVolatility, Min: 0, Max: 0.3, Steps: 3}

	g, err := Build(baseRequest, axis1, axis2, Call)
	if err == nil {
		t.Fatal("expected error for volatility axis starting at zero")
	}
	if g != nil {
		t.Fatal("partial grid must not be returned on failure")
	}
}

func TestCellsFlattening(t *testing.T) {
	axis1 := AxisSpec{Field: AxisSpot, Min: 90, Max: 110, Steps: 3}
	axis2 := AxisSpec{Field: AxisVolatility, Min: 0.1, Max: 0.3, Steps: 2}

	g, err := Build(baseRequest, axis1, axis2, Call)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cells := g.Cells(baseRequest)
	if len(cells) != 6 {
		t.Fatalf("got %d cells, want 6", len(cells))
	}

	// Row-major: first cell is (min, min), shocks relative to base.
	first := cells[0]
	if math.Abs(first.Axis1Shock-(-10)) > 1e-12 || math.Abs(first.Axis2Shock-(-0.1)) > 1e-12 {
		t.Fatalf("first cell shocks = (%g, %g), want (-10, -0.1)", first.Axis1Shock, first.Axis2Shock)
	}
	last := cells[len(cells)-1]
	if math.Abs(last.Axis1Shock-10) > 1e-12 || math.Abs(last.Axis2Shock-0.1) > 1e-12 {
		t.Fatalf("last cell shocks = (%g, %g), want (10, 0.1)", last.Axis1Shock, last.Axis2Shock)
	}
	for _, cell := range cells {
		if !cell.Call {
			t.Fatal("call grid produced a non-call cell")
		}
	}
	if first.Price != g.Prices[0][0] || last.Price != g.Prices[2][1] {
		t.Fatal("cell prices do not match grid layout")
	}
}

func TestParseAxisField(t *testing.T) {
	for name, want := range map[string]AxisField{
		"spot":             AxisSpot,
		"strike":           AxisStrike,
		"time_to_maturity": AxisTimeToMaturity,
		"volatility":       AxisVolatility,
		"risk_free_rate":   AxisRiskFreeRate,
	} {
		got, err := ParseAxisField(name)
		if err != nil {
			t.Fatalf("ParseAxisField(%q) failed: %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseAxisField(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseAxisField("moneyness"); err == nil {
		t.Fatal("unknown field should fail")
	}
}
