package pnf

import (
	"testing"
	"time"
)

func TestMonthMarker(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, "1"},
		{time.September, "9"},
		{time.October, "A"},
		{time.November, "B"},
		{time.December, "C"},
		{time.Month(0), ""},
		{time.Month(13), ""},
	}
	for _, tt := range tests {
		if got := MonthMarker(tt.month); got != tt.want {
			t.Errorf("MonthMarker(%d) = %q, want %q", tt.month, got, tt.want)
		}
	}

	if !IsMonthMarker("B") || IsMonthMarker("D") || IsMonthMarker("X") {
		t.Error("IsMonthMarker misclassifies labels")
	}
}

func TestMonthChanged(t *testing.T) {
	jan := time.Date(2024, time.January, 31, 23, 0, 0, 0, time.UTC)

	if _, ok := monthChanged(time.Time{}, time.Time{}); ok {
		t.Error("two zero times reported as a change")
	}
	if _, ok := monthChanged(jan, jan.Add(30*time.Minute)); ok {
		t.Error("same month reported as a change")
	}
	if m, ok := monthChanged(jan, jan.Add(2*time.Hour)); !ok || m != "2" {
		t.Errorf("into February = %q, %v; want 2, true", m, ok)
	}
	nextYear := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	if m, ok := monthChanged(jan, nextYear); !ok || m != "1" {
		t.Errorf("same month next year = %q, %v; want 1, true", m, ok)
	}
}

func TestBuildGrid(t *testing.T) {
	chart := fixedChart(t, ConstructionClose, 1, 3)
	feedCloses(t, chart, 100, 101, 102, 99)

	grid := BuildGrid(chart)
	if len(grid.ColumnTypes) != 2 || grid.ColumnTypes[0] != ColumnX || grid.ColumnTypes[1] != ColumnO {
		t.Fatalf("ColumnTypes = %v, want [X O]", grid.ColumnTypes)
	}

	want := []struct {
		price float64
		cells []string
	}{
		{102, []string{"X", ""}},
		{101, []string{"X", "O"}},
		{100, []string{"1", "O"}},
		{99, []string{"", "O"}},
	}
	if len(grid.Rows) != len(want) {
		t.Fatalf("len(Rows) = %d, want %d", len(grid.Rows), len(want))
	}
	for i, w := range want {
		row := grid.Rows[i]
		if row.Price != w.price {
			t.Errorf("row %d price = %v, want %v", i, row.Price, w.price)
		}
		for j := range w.cells {
			if row.Cells[j] != w.cells[j] {
				t.Errorf("row %v col %d = %q, want %q", w.price, j, row.Cells[j], w.cells[j])
			}
		}
	}
}

func TestBuildGrid_RowsFollowAllPrices(t *testing.T) {
	chart := fixedChart(t, ConstructionClose, 0.1, 1)
	feedCloses(t, chart, 1.0, 1.3, 1.1, 1.4, 0.9)

	prices := chart.AllPrices()
	grid := BuildGrid(chart)
	if len(grid.Rows) != len(prices) {
		t.Fatalf("len(Rows) = %d, want %d", len(grid.Rows), len(prices))
	}
	for i, p := range prices {
		if grid.Rows[i].Price != p {
			t.Errorf("row %d price = %v, want %v", i, grid.Rows[i].Price, p)
		}
	}
	for i := 1; i < len(grid.Rows); i++ {
		if grid.Rows[i].Price >= grid.Rows[i-1].Price {
			t.Errorf("rows not descending at %d: %v then %v", i, grid.Rows[i-1].Price, grid.Rows[i].Price)
		}
	}
}

func TestSnapshot(t *testing.T) {
	chart := fixedChart(t, ConstructionClose, 1, 3)
	feedCloses(t, chart, 100, 105, 99, 103)

	s := chart.Snapshot()
	if s.State != "UP" || s.Bias != BiasBullish || s.BoxSize != 1 {
		t.Errorf("snapshot header = %s %s %v", s.State, s.Bias, s.BoxSize)
	}
	if len(s.Columns) != 3 || s.Columns[1].Type != ColumnO || s.Columns[1].Lowest != 99 {
		t.Fatalf("snapshot columns = %+v", s.Columns)
	}
	if s.Columns[0].Boxes[0].Marker != "1" {
		t.Errorf("first box marker = %q, want 1", s.Columns[0].Boxes[0].Marker)
	}
	if len(s.TrendLines) != 1 || !s.TrendLines[0].Active || s.TrendLines[0].Start.Price != 99 {
		t.Errorf("snapshot trend lines = %+v", s.TrendLines)
	}
}
