package dbscan

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func column(data [][]float64, j int) []float64 {
	col := make([]float64, len(data))
	for i, row := range data {
		col[i] = row[j]
	}
	return col
}

func TestStandardize_ZeroMeanUnitVariance(t *testing.T) {
	data := generateBenchData(200, 4)
	std, err := Standardize(data, ZeroVarianceCenter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for j := 0; j < 4; j++ {
		mean, sd := stat.PopMeanStdDev(column(std.Data, j), nil)
		if !almostEqual(mean, 0, 1e-9) {
			t.Errorf("column %d mean = %v, want 0", j, mean)
		}
		if !almostEqual(sd, 1, 1e-9) {
			t.Errorf("column %d std = %v, want 1", j, sd)
		}
	}
	if len(std.ZeroVarianceColumns) != 0 {
		t.Errorf("unexpected zero-variance columns %v", std.ZeroVarianceColumns)
	}
}

func TestStandardize_HandComputed(t *testing.T) {
	// Column 0: mean 2, population std sqrt(2/3).
	data := [][]float64{{1}, {2}, {3}}
	std, err := Standardize(data, ZeroVarianceCenter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := math.Sqrt(2.0 / 3.0)
	want := []float64{-1 / s, 0, 1 / s}
	for i, w := range want {
		if !almostEqual(std.Data[i][0], w, floatTol) {
			t.Errorf("row %d = %v, want %v", i, std.Data[i][0], w)
		}
	}
	if !almostEqual(std.Means[0], 2, floatTol) || !almostEqual(std.StdDevs[0], s, floatTol) {
		t.Errorf("stats = (%v, %v), want (2, %v)", std.Means[0], std.StdDevs[0], s)
	}
}

func TestStandardize_DoesNotMutateInput(t *testing.T) {
	data := [][]float64{{1, 10}, {2, 20}, {3, 30}}
	if _, err := Standardize(data, ZeroVarianceCenter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data[0][0] != 1 || data[2][1] != 30 {
		t.Errorf("input was modified: %v", data)
	}
}

func TestStandardize_ZeroVarianceCenter(t *testing.T) {
	data := [][]float64{
		{1, 3.3, 10},
		{2, 3.3, 20},
		{3, 3.3, 35},
		{4, 3.3, 5},
		{5, 3.3, 1},
		{6, 3.3, 8},
		{7, 3.3, 13},
	}
	std, err := Standardize(data, ZeroVarianceCenter)
	if err != nil {
		t.Fatalf("constant column must not fail under the center policy: %v", err)
	}
	if len(std.ZeroVarianceColumns) != 1 || std.ZeroVarianceColumns[0] != 1 {
		t.Fatalf("ZeroVarianceColumns = %v, want [1]", std.ZeroVarianceColumns)
	}
	for i, row := range std.Data {
		if row[1] != 0 {
			t.Errorf("row %d constant column = %v, want 0", i, row[1])
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("row %d column %d is not finite: %v", i, j, v)
			}
		}
	}
	if std.StdDevs[1] != 0 {
		t.Errorf("StdDevs[1] = %v, want 0", std.StdDevs[1])
	}
}

func TestStandardize_ZeroVarianceReject(t *testing.T) {
	data := [][]float64{{1, 0}, {2, 0}, {3, 0}}
	_, err := Standardize(data, ZeroVarianceReject)
	var zv *ZeroVarianceFeatureError
	if !errors.As(err, &zv) {
		t.Fatalf("expected *ZeroVarianceFeatureError, got %v", err)
	}
	if zv.Column != 1 {
		t.Errorf("Column = %d, want 1", zv.Column)
	}
}

func TestStandardize_DataErrors(t *testing.T) {
	tests := []struct {
		name string
		data [][]float64
	}{
		{"empty", nil},
		{"single row", [][]float64{{1, 2}}},
		{"ragged", [][]float64{{1, 2}, {3}}},
		{"nan", [][]float64{{1, 2}, {math.NaN(), 3}}},
		{"inf", [][]float64{{1, 2}, {math.Inf(1), 3}}},
		{"no features", [][]float64{{}, {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Standardize(tt.data, ZeroVarianceCenter)
			var de *DataError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DataError, got %v", err)
			}
			if de.Stage != StageStandardize {
				t.Errorf("Stage = %q, want %q", de.Stage, StageStandardize)
			}
		})
	}
}

func TestStandardize_InvalidPolicy(t *testing.T) {
	if _, err := Standardize([][]float64{{1}, {2}}, "drop"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
