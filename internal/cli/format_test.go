package cli

import (
	"bytes"
	"strings"
	"testing"

	"pnf-chart/internal/pnf"
)

func TestRenderGrid(t *testing.T) {
	var buf bytes.Buffer
	o := newOutput(&buf, false, false)

	grid := pnf.Grid{
		ColumnTypes: []pnf.ColumnType{pnf.ColumnX, pnf.ColumnO},
		Rows: []pnf.GridRow{
			{Price: 1.102, Cells: []string{"X", ""}},
			{Price: 1.101, Cells: []string{"X", "O"}},
			{Price: 1.1, Cells: []string{"3", "O"}},
		},
	}
	renderGrid(o, grid, 3)

	want := "1.102 | X .\n1.101 | X O\n1.100 | 3 O\n"
	if buf.String() != want {
		t.Errorf("grid =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestRenderGrid_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderGrid(newOutput(&buf, false, false), pnf.Grid{}, 2)
	if buf.String() != "(empty chart)\n" {
		t.Errorf("empty grid = %q", buf.String())
	}
}

func TestCellColours(t *testing.T) {
	var buf bytes.Buffer
	o := newOutput(&buf, false, true)

	if got := o.cell("X"); got == "X" || stripANSI(got) != "X" {
		t.Errorf("X cell = %q, want coloured X", got)
	}
	if got := o.cell("O"); stripANSI(got) != "O" || got == o.cell("X") {
		t.Errorf("O cell = %q", got)
	}
	if got := o.cell(""); stripANSI(got) != emptyCell {
		t.Errorf("empty cell = %q", got)
	}
	if got := o.cell("A"); stripANSI(got) != "A" || got == "A" {
		t.Errorf("marker cell = %q", got)
	}
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	o := newOutput(&buf, false, false)

	table := NewTable(o, "SYMBOL", "BIAS")
	table.AddRow("EURUSD", "BULLISH")
	table.AddRow("X", o.Green("NONE"))
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"SYMBOL  BIAS",
		"------  -------",
		"EURUSD  BULLISH",
		"X       NONE",
	}
	if len(lines) != len(want) {
		t.Fatalf("table =\n%s", buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFormatPoint(t *testing.T) {
	p := pnf.TrendLinePoint{ColumnIndex: 4, Price: 104}
	if got := formatPoint(p, 2); got != "col 4 @ 104.00" {
		t.Errorf("formatPoint = %q", got)
	}
}
