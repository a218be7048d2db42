package pnf

import "math"

// GridRow is one price level of a chart grid, with a cell per column.
type GridRow struct {
	Price float64  `json:"price" yaml:"price"`
	Cells []string `json:"cells" yaml:"cells"`
}

// Grid is the printable layout of a chart: rows from highest to lowest price,
// columns left to right. A cell holds a box marker, X, O or "".
type Grid struct {
	ColumnTypes []ColumnType `json:"column_types" yaml:"column_types"`
	Rows        []GridRow    `json:"rows" yaml:"rows"`
}

// BuildGrid lays out every column of r against the chart's distinct prices.
func BuildGrid(r ColumnReader) Grid {
	n := r.ColumnCount()
	grid := Grid{ColumnTypes: make([]ColumnType, n)}

	for i := 0; i < n; i++ {
		grid.ColumnTypes[i] = r.Column(i).Type()
	}
	prices := r.AllPrices()

	grid.Rows = make([]GridRow, len(prices))
	for row, price := range prices {
		cells := make([]string, n)
		for i := 0; i < n; i++ {
			if b, ok := boxNear(r.Column(i), price); ok {
				cells[i] = b.Symbol()
			}
		}
		grid.Rows[row] = GridRow{Price: price, Cells: cells}
	}
	return grid
}

func boxNear(col *Column, price float64) (Box, bool) {
	for _, b := range col.boxes {
		if math.Abs(b.price-price) < priceEpsilon {
			return b, true
		}
	}
	return Box{}, false
}
