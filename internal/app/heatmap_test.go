package app

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"option-pricer/internal/grid"
	"option-pricer/internal/pricing"
)

func TestSliceIndices(t *testing.T) {
	got := sliceIndices(5, 8)
	if len(got) != 5 {
		t.Fatalf("small input should keep every index, got %v", got)
	}
	for i, idx := range got {
		if idx != i {
			t.Fatalf("expected identity indices, got %v", got)
		}
	}

	got = sliceIndices(100, 4)
	if len(got) != 4 {
		t.Fatalf("want 4 indices, got %v", got)
	}
	if got[0] != 0 || got[len(got)-1] != 99 {
		t.Fatalf("endpoints must survive downsampling, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("indices must be strictly increasing, got %v", got)
		}
	}
}

func TestSliceIndicesTinyCaps(t *testing.T) {
	// A series cap of 1 must not blow up the spacing arithmetic; every
	// returned index has to be usable as a slice index.
	for _, n := range []int{1, 2, 5, 100} {
		got := sliceIndices(n, 1)
		if len(got) != 1 || got[0] != 0 {
			t.Fatalf("sliceIndices(%d, 1) = %v, want [0]", n, got)
		}
	}

	got := sliceIndices(100, 2)
	if len(got) != 2 || got[0] != 0 || got[1] != 99 {
		t.Fatalf("sliceIndices(100, 2) = %v, want both endpoints", got)
	}

	if got := sliceIndices(0, 4); got != nil {
		t.Fatalf("sliceIndices(0, 4) = %v, want nil", got)
	}

	for _, max := range []int{1, 2, 3} {
		for _, n := range []int{1, 2, 3, 7, 50} {
			for _, idx := range sliceIndices(n, max) {
				if idx < 0 || idx >= n {
					t.Fatalf("sliceIndices(%d, %d) produced out-of-range index %d", n, max, idx)
				}
			}
		}
	}
}

func TestWriteGridCSV(t *testing.T) {
	base := pricing.Request{Spot: 100, Strike: 100, TimeToMaturity: 1, Volatility: 0.2, RiskFreeRate: 0.05}
	g, err := grid.Build(base,
		grid.AxisSpec{Field: grid.AxisSpot, Min: 90, Max: 110, Steps: 3},
		grid.AxisSpec{Field: grid.AxisVolatility, Min: 0.1, Max: 0.3, Steps: 2},
		grid.Call,
	)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "surface.csv")
	if err := writeGridCSV(path, g); err != nil {
		t.Fatalf("writeGridCSV failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("want header + 3 rows, got %d", len(rows))
	}
	if len(rows[0]) != 3 {
		t.Fatalf("want label + 2 columns, got %d", len(rows[0]))
	}
	if rows[0][0] != `spot\volatility` {
		t.Fatalf("unexpected matrix label %q", rows[0][0])
	}
	if rows[1][0] != "90" || rows[3][0] != "110" {
		t.Fatalf("axis1 labels wrong: %q .. %q", rows[1][0], rows[3][0])
	}
}
