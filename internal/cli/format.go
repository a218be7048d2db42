package cli

import (
	"fmt"
	"strconv"
	"strings"

	"pnf-chart/internal/builder"
	"pnf-chart/internal/pnf"
	"pnf-chart/pkg/utils"
)

// emptyCell fills grid positions with no box.
const emptyCell = "."

// renderGrid prints the chart highest price first, one character per column.
func renderGrid(o *Output, grid pnf.Grid, decimals int) {
	if len(grid.Rows) == 0 {
		o.Dim("(empty chart)")
		return
	}

	width := 0
	labels := make([]string, len(grid.Rows))
	for i, row := range grid.Rows {
		labels[i] = utils.FormatPrice(row.Price, decimals)
		if len(labels[i]) > width {
			width = len(labels[i])
		}
	}

	for i, row := range grid.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = o.cell(cell)
		}
		o.Printf("%s | %s\n", utils.PadLeft(labels[i], width), strings.Join(cells, " "))
	}
}

func (o *Output) cell(symbol string) string {
	switch {
	case symbol == "":
		return o.DimText(emptyCell)
	case symbol == string(pnf.BoxX):
		return o.Green(symbol)
	case symbol == string(pnf.BoxO):
		return o.Red(symbol)
	}
	return o.Yellow(symbol)
}

func renderSummary(o *Output, s builder.Summary, cfg pnf.Config, decimals int) {
	title := s.Symbol
	if s.Timeframe != "" {
		title += " " + s.Timeframe
	}
	o.Bold("%s", title)
	o.Printf("  Config:       %s\n", cfg)
	o.Printf("  Box size:     %s\n", utils.FormatPrice(s.BoxSize, decimals))
	o.Printf("  Observations: %s (%d rejected, %d updated the chart)\n",
		utils.FormatCount(int64(s.Observations)), s.Rejected, s.Updates)
	o.Printf("  Columns:      %d (X %d, O %d, mixed %d)\n", s.Columns, s.XColumns, s.OColumns, s.MixedColumns)
	o.Printf("  Trend lines:  %d (%d broken)\n", s.TrendLines, s.BrokenTrendLines)
	o.Printf("  Last close:   %s\n", utils.FormatPrice(s.LastClose, decimals))
	o.Printf("  Bias:         %s\n", o.bias(s.Bias))
}

func (o *Output) bias(b pnf.Bias) string {
	switch b {
	case pnf.BiasBullish:
		return o.Green(string(b))
	case pnf.BiasBearish:
		return o.Red(string(b))
	}
	return o.DimText(string(b))
}

func renderTrendLines(o *Output, lines []pnf.TrendLine, decimals int) {
	if len(lines) == 0 {
		o.Dim("No trend lines")
		return
	}
	table := NewTable(o, "#", "TYPE", "START", "END", "TOUCHES", "STATUS")
	for i, l := range lines {
		status := o.DimText("broken")
		if l.IsActive() {
			status = o.Green("active")
		}
		table.AddRow(
			strconv.Itoa(i+1),
			l.Type().String(),
			formatPoint(l.Start(), decimals),
			formatPoint(l.End(), decimals),
			strconv.Itoa(l.TouchCount()),
			status,
		)
	}
	table.Render()
}

func formatPoint(p pnf.TrendLinePoint, decimals int) string {
	return fmt.Sprintf("col %d @ %s", p.ColumnIndex, utils.FormatPrice(p.Price, decimals))
}
