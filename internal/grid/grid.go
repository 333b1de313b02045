package grid

import (
	"fmt"

	"option-pricer/internal/pricing"
)

// MaxSteps caps the per-axis resolution; a request beyond it is rejected at
// validation instead of being allowed to run unbounded.
const MaxSteps = 200

// AxisField enumerates the request fields a grid axis may sweep.
type AxisField int

const (
	AxisSpot AxisField = iota
	AxisStrike
	AxisTimeToMaturity
	AxisVolatility
	AxisRiskFreeRate
)

var axisNames = map[AxisField]string{
	AxisSpot:           "spot",
	AxisStrike:         "strike",
	AxisTimeToMaturity: "time_to_maturity",
	AxisVolatility:     "volatility",
	AxisRiskFreeRate:   "risk_free_rate",
}

func (f AxisField) String() string {
	if name, ok := axisNames[f]; ok {
		return name
	}
	return fmt.Sprintf("AxisField(%d)", int(f))
}

// ParseAxisField resolves a user-supplied field name to its enum value.
func ParseAxisField(name string) (AxisField, error) {
	for field, n := range axisNames {
		if n == name {
			return field, nil
		}
	}
	return 0, &pricing.ValidationError{Field: "axis.field", Reason: fmt.Sprintf("unknown field %q", name)}
}

// AxisSpec describes one swept dimension: Steps values linearly spaced over
// [Min, Max], both endpoints included.
type AxisSpec struct {
	Field AxisField
	Min   float64
	Max   float64
	Steps int
}

func (a AxisSpec) validate(label string) error {
	if _, ok := axisNames[a.Field]; !ok {
		return &pricing.ValidationError{Field: label + ".field", Reason: "unknown axis field"}
	}
	if a.Min >= a.Max {
		return &pricing.ValidationError{Field: label + ".range", Reason: "min must be strictly below max"}
	}
	if a.Steps < 2 {
		return &pricing.ValidationError{Field: label + ".steps", Reason: "need at least 2 steps"}
	}
	if a.Steps > MaxSteps {
		return &pricing.ValidationError{Field: label + ".steps", Reason: fmt.Sprintf("at most %d steps per axis", MaxSteps)}
	}
	return nil
}

// values materialises the axis as an ascending slice bracketing [Min, Max].
func (a AxisSpec) values() []float64 {
	out := make([]float64, a.Steps)
	step := (a.Max - a.Min) / float64(a.Steps-1)
	for i := range out {
		out[i] = a.Min + float64(i)*step
	}
	out[a.Steps-1] = a.Max
	return out
}

// OptionType selects which leg of the pricing result a grid carries.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType validates a user-supplied option type.
func ParseOptionType(s string) (OptionType, error) {
	switch OptionType(s) {
	case Call, Put:
		return OptionType(s), nil
	}
	return "", &pricing.ValidationError{Field: "option_type", Reason: fmt.Sprintf("must be %q or %q", Call, Put)}
}

// Grid is a rectangular sensitivity surface. Prices is row-major:
// Prices[i][j] is the price at Axis1Values[i], Axis2Values[j], with all
// remaining request fields taken from the base request.
type Grid struct {
	OptionType  OptionType
	Axis1       AxisSpec
	Axis2       AxisSpec
	Axis1Values []float64
	Axis2Values []float64
	Prices      [][]float64
}

// Build evaluates the pricing engine over every axis combination. It is pure
// and all-or-nothing: any invalid spec or per-cell failure aborts the whole
// grid, partial surfaces are never returned.
func Build(base pricing.Request, axis1, axis2 AxisSpec, opt OptionType) (*Grid, error) {
	if opt != Call && opt != Put {
		return nil, &pricing.ValidationError{Field: "option_type", Reason: fmt.Sprintf("must be %q or %q", Call, Put)}
	}
	if err := axis1.validate("axis1"); err != nil {
		return nil, err
	}
	if err := axis2.validate("axis2"); err != nil {
		return nil, err
	}
	if axis1.Field == axis2.Field {
		return nil, &pricing.ValidationError{Field: "axis2.field", Reason: "axes must sweep different fields"}
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	g := &Grid{
		OptionType:  opt,
		Axis1:       axis1,
		Axis2:       axis2,
		Axis1Values: axis1.values(),
		Axis2Values: axis2.values(),
		Prices:      make([][]float64, axis1.Steps),
	}

	for i, v1 := range g.Axis1Values {
		row := make([]float64, axis2.Steps)
		for j, v2 := range g.Axis2Values {
			req := base
			applyAxis(&req, axis1.Field, v1)
			applyAxis(&req, axis2.Field, v2)

			res, err := pricing.Price(req)
			if err != nil {
				return nil, fmt.Errorf("grid cell (%s=%g, %s=%g): %w", axis1.Field, v1, axis2.Field, v2, err)
			}
			if opt == Call {
				row[j] = res.CallPrice
			} else {
				row[j] = res.PutPrice
			}
		}
		g.Prices[i] = row
	}

	return g, nil
}

func applyAxis(req *pricing.Request, field AxisField, value float64) {
	switch field {
	case AxisSpot:
		req.Spot = value
	case AxisStrike:
		req.Strike = value
	case AxisTimeToMaturity:
		req.TimeToMaturity = value
	case AxisVolatility:
		req.Volatility = value
	case AxisRiskFreeRate:
		req.RiskFreeRate = value
	}
}

// Cell is one flattened grid evaluation, expressed as shocks relative to the
// base request so the stored surface stays meaningful next to its inputs.
type Cell struct {
	Axis1Shock float64
	Axis2Shock float64
	Price      float64
	Call       bool
}

// Cells flattens the surface for persistence, row-major to match Prices.
func (g *Grid) Cells(base pricing.Request) []Cell {
	base1 := baseValue(base, g.Axis1.Field)
	base2 := baseValue(base, g.Axis2.Field)

	cells := make([]Cell, 0, len(g.Axis1Values)*len(g.Axis2Values))
	for i, v1 := range g.Axis1Values {
		for j, v2 := range g.Axis2Values {
			cells = append(cells, Cell{
				Axis1Shock: v1 - base1,
				Axis2Shock: v2 - base2,
				Price:      g.Prices[i][j],
				Call:       g.OptionType == Call,
			})
		}
	}
	return cells
}

func baseValue(req pricing.Request, field AxisField) float64 {
	switch field {
	case AxisSpot:
		return req.Spot
	case AxisStrike:
		return req.Strike
	case AxisTimeToMaturity:
		return req.TimeToMaturity
	case AxisVolatility:
		return req.Volatility
	case AxisRiskFreeRate:
		return req.RiskFreeRate
	}
	return 0
}
