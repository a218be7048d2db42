package pnf

import "testing"

// column builds a column of unit boxes from one price to another, in the
// order a fill would add them.
func column(t ColumnType, from, to float64) *Column {
	col := NewColumn(t)
	boxType := BoxX
	if t == ColumnO {
		boxType = BoxO
	}
	if from <= to {
		for p := from; p <= to; p++ {
			col.AddBox(p, boxType)
		}
	} else {
		for p := from; p >= to; p-- {
			col.AddBox(p, boxType)
		}
	}
	return col
}

func TestIsSignificantLow(t *testing.T) {
	columns := []*Column{
		column(ColumnX, 100, 105),
		column(ColumnO, 104, 99),
		column(ColumnX, 100, 103),
		column(ColumnO, 102, 100),
	}

	if !IsSignificantLow(columns, 1) {
		t.Error("column 1 should be a significant low")
	}
	// Column 3 bottoms at 100 but column 1 went to 99.
	if IsSignificantLow(columns, 3) {
		t.Error("column 3 should not be a significant low")
	}
	if IsSignificantLow(columns, 2) {
		t.Error("an X column is never a significant low")
	}
	if IsSignificantLow(columns, 0) {
		t.Error("column 0 has no predecessor")
	}
	if got := FindSignificantLow(columns, 3); got != 1 {
		t.Errorf("FindSignificantLow(3) = %d, want 1", got)
	}
}

func TestIsSignificantHigh(t *testing.T) {
	columns := []*Column{
		column(ColumnO, 100, 95),
		column(ColumnX, 96, 101),
		column(ColumnO, 100, 97),
		column(ColumnX, 98, 100),
	}

	if !IsSignificantHigh(columns, 1) {
		t.Error("column 1 should be a significant high")
	}
	if IsSignificantHigh(columns, 3) {
		t.Error("column 3 should not be a significant high")
	}
	if got := FindSignificantHigh(columns, 3); got != 1 {
		t.Errorf("FindSignificantHigh(3) = %d, want 1", got)
	}
	if got := FindSignificantHigh(columns[:1], 0); got != -1 {
		t.Errorf("FindSignificantHigh on one column = %d, want -1", got)
	}
}

func TestTrendLineManager_SupportThenResistance(t *testing.T) {
	m := NewTrendLineManager(1.0)
	columns := []*Column{
		column(ColumnX, 100, 105),
		column(ColumnO, 104, 99),
		column(ColumnX, 100, 103),
	}

	m.UpdateTrendLines(columns, 1)
	if m.Len() != 0 {
		t.Fatalf("line drawn after first reversal: %s", m)
	}

	m.UpdateTrendLines(columns, 2)
	line, ok := m.Active()
	if !ok {
		t.Fatal("no active line after X column following a swing low")
	}
	if line.Type() != BullishSupport || line.Start().ColumnIndex != 1 || line.Start().Price != 99 {
		t.Errorf("active line = %s, want support at column 1 price 99", line)
	}
	if line.Start().BoxIndex != 5 {
		t.Errorf("anchor box index = %d, want 5", line.Start().BoxIndex)
	}
	if m.Bias() != BiasBullish {
		t.Errorf("Bias() = %s, want BULLISH", m.Bias())
	}

	columns = append(columns,
		column(ColumnO, 102, 100),
		column(ColumnX, 101, 104),
		column(ColumnO, 103, 98),
	)
	m.UpdateTrendLines(columns, 3)
	m.UpdateTrendLines(columns, 4)
	if !m.HasBullishBias() {
		t.Fatal("support should survive columns 3 and 4")
	}

	m.UpdateTrendLines(columns, 5)
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	lines := m.Lines()
	if lines[0].IsActive() {
		t.Error("broken support is still active")
	}
	if lines[0].End().ColumnIndex != 5 {
		t.Errorf("broken support end column = %d, want 5", lines[0].End().ColumnIndex)
	}

	line, ok = m.Active()
	if !ok || line.Type() != BearishResistance {
		t.Fatalf("active line = %v, %v; want resistance", line, ok)
	}
	if line.Start().ColumnIndex != 4 || line.Start().Price != 104 || line.Start().BoxIndex != 3 {
		t.Errorf("resistance start = %+v, want column 4 price 104 box 3", line.Start())
	}
	if m.ActiveCount() != 1 {
		t.Errorf("ActiveCount() = %d, want 1", m.ActiveCount())
	}
	if !m.IsBelowBearishResistance(5, 102) || m.IsBelowBearishResistance(5, 103) {
		t.Error("IsBelowBearishResistance disagrees with the line at 103")
	}
	if m.IsAboveBullishSupport(5, 200) {
		t.Error("IsAboveBullishSupport true without an active support")
	}
}

func TestTrendLineManager_Clear(t *testing.T) {
	m := NewTrendLineManager(1.0)
	columns := []*Column{
		column(ColumnX, 100, 105),
		column(ColumnO, 104, 99),
		column(ColumnX, 100, 103),
	}
	m.UpdateTrendLines(columns, 2)
	m.Clear()
	if m.Len() != 0 || m.Bias() != BiasNone {
		t.Errorf("after Clear: %s", m)
	}
	if _, ok := m.Active(); ok {
		t.Error("Active() after Clear returned a line")
	}
}

func TestTrendLineManager_UsesCurrentBoxSize(t *testing.T) {
	m := NewTrendLineManager(1.0)
	m.SetBoxSize(2.0)
	columns := []*Column{
		column(ColumnX, 100, 105),
		column(ColumnO, 104, 99),
		column(ColumnX, 100, 103),
	}
	m.UpdateTrendLines(columns, 2)
	line, ok := m.Active()
	if !ok || line.BoxSize() != 2.0 {
		t.Errorf("line box size = %v, want 2", line.BoxSize())
	}
}
