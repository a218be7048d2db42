package pnf

import (
	"fmt"

	"github.com/rs/zerolog"
)

// significanceLookback is how many earlier columns a swing extreme must beat.
const significanceLookback = 3

// noLine is the active handle when no trend line is active.
const noLine = -1

// TrendLineManager keeps the history of trend lines drawn on a chart and a
// handle to the single active one.
type TrendLineManager struct {
	lines   []TrendLine
	active  int
	boxSize float64
	logger  zerolog.Logger
}

// NewTrendLineManager creates a manager whose new lines slope by boxSize per column.
func NewTrendLineManager(boxSize float64) *TrendLineManager {
	return &TrendLineManager{
		active:  noLine,
		boxSize: boxSize,
		logger:  zerolog.Nop(),
	}
}

// SetBoxSize changes the slope used for lines created from now on.
func (m *TrendLineManager) SetBoxSize(boxSize float64) { m.boxSize = boxSize }

// BoxSize returns the slope used for new lines.
func (m *TrendLineManager) BoxSize() float64 { return m.boxSize }

// Active returns a copy of the active line.
func (m *TrendLineManager) Active() (TrendLine, bool) {
	if m.active == noLine {
		return TrendLine{}, false
	}
	return m.lines[m.active], true
}

// Lines returns a copy of every line ever drawn, oldest first.
func (m *TrendLineManager) Lines() []TrendLine {
	out := make([]TrendLine, len(m.lines))
	copy(out, m.lines)
	return out
}

// Len returns the number of lines in the history.
func (m *TrendLineManager) Len() int { return len(m.lines) }

// ActiveCount returns how many lines are flagged active (never more than one).
func (m *TrendLineManager) ActiveCount() int {
	n := 0
	for i := range m.lines {
		if m.lines[i].active {
			n++
		}
	}
	return n
}

func (m *TrendLineManager) activeLine() *TrendLine {
	if m.active == noLine {
		return nil
	}
	return &m.lines[m.active]
}

// Clear drops all lines.
func (m *TrendLineManager) Clear() {
	m.lines = nil
	m.active = noLine
}

// UpdateTrendLines is called after a new column has been appended at newIndex.
func (m *TrendLineManager) UpdateTrendLines(columns []*Column, newIndex int) {
	m.CheckTrendLineBreak(columns, newIndex)
	m.ProcessNewColumn(columns, newIndex)
}

// CheckTrendLineBreak tests the active line against the column at index and
// retires it when the column closes more than one box through it.
func (m *TrendLineManager) CheckTrendLineBreak(columns []*Column, index int) {
	line := m.activeLine()
	if line == nil || index < 0 || index >= len(columns) {
		return
	}
	col := columns[index]

	price := col.Highest()
	if line.lineType == BullishSupport {
		price = col.Lowest()
	}

	if line.IsBroken(index, price) {
		m.retire(index, price)
		return
	}
	if line.Test(index, price) {
		m.logger.Debug().
			Str("line", string(line.lineType)).
			Int("column", index).
			Int("touches", line.touchCount).
			Msg("Trend line touched")
	}
}

// ProcessNewColumn draws a new line when a reversal exposes a fresh swing point.
func (m *TrendLineManager) ProcessNewColumn(columns []*Column, index int) {
	if index < 1 || index >= len(columns) {
		return
	}
	cur, prev := columns[index], columns[index-1]

	switch {
	case cur.Type() == ColumnX && prev.Type() == ColumnO:
		if line := m.activeLine(); line != nil {
			if line.lineType != BearishResistance || !line.IsBroken(index, cur.Highest()) {
				return
			}
			m.retire(index, cur.Highest())
		}
		if low := FindSignificantLow(columns, index-1); low >= 0 {
			anchor := columns[low]
			m.add(NewTrendLine(BullishSupport, low, anchor.Lowest(), anchor.extremeIndex(false), m.boxSize))
		}

	case cur.Type() == ColumnO && prev.Type() == ColumnX:
		if line := m.activeLine(); line != nil {
			if line.lineType != BullishSupport || !line.IsBroken(index, cur.Lowest()) {
				return
			}
			m.retire(index, cur.Lowest())
		}
		if high := FindSignificantHigh(columns, index-1); high >= 0 {
			anchor := columns[high]
			m.add(NewTrendLine(BearishResistance, high, anchor.Highest(), anchor.extremeIndex(true), m.boxSize))
		}
	}
}

func (m *TrendLineManager) add(line TrendLine) {
	m.lines = append(m.lines, line)
	m.active = len(m.lines) - 1
	m.logger.Debug().
		Str("line", string(line.lineType)).
		Int("start_column", line.start.ColumnIndex).
		Float64("start_price", line.start.Price).
		Float64("box_size", line.boxSize).
		Msg("Trend line drawn")
}

func (m *TrendLineManager) retire(index int, price float64) {
	line := m.activeLine()
	line.active = false
	line.UpdateEndPoint(index, line.PriceAt(index), line.end.BoxIndex)
	m.active = noLine
	m.logger.Debug().
		Str("line", string(line.lineType)).
		Int("column", index).
		Float64("price", price).
		Msg("Trend line broken")
}

// IsSignificantLow reports whether the O column at index is a swing low: it
// follows an X column it overlaps and no earlier column in the lookback window
// went lower.
func IsSignificantLow(columns []*Column, index int) bool {
	if index < 1 || index >= len(columns) || columns[index].Type() != ColumnO {
		return false
	}
	low := columns[index].Lowest()
	prev := columns[index-1]
	if prev.Type() != ColumnX || low >= prev.Highest() {
		return false
	}
	for i := 1; i <= min(significanceLookback, index); i++ {
		if columns[index-i].Lowest() < low {
			return false
		}
	}
	return true
}

// IsSignificantHigh is the mirror of IsSignificantLow for X columns.
func IsSignificantHigh(columns []*Column, index int) bool {
	if index < 1 || index >= len(columns) || columns[index].Type() != ColumnX {
		return false
	}
	high := columns[index].Highest()
	prev := columns[index-1]
	if prev.Type() != ColumnO || high <= prev.Lowest() {
		return false
	}
	for i := 1; i <= min(significanceLookback, index); i++ {
		if columns[index-i].Highest() > high {
			return false
		}
	}
	return true
}

// FindSignificantLow scans back from index and returns the first swing low, or -1.
func FindSignificantLow(columns []*Column, from int) int {
	for i := min(from, len(columns)-1); i >= 0; i-- {
		if IsSignificantLow(columns, i) {
			return i
		}
	}
	return -1
}

// FindSignificantHigh scans back from index and returns the first swing high, or -1.
func FindSignificantHigh(columns []*Column, from int) int {
	for i := min(from, len(columns)-1); i >= 0; i-- {
		if IsSignificantHigh(columns, i) {
			return i
		}
	}
	return -1
}

// IsAboveBullishSupport reports whether price is strictly above an active support line.
func (m *TrendLineManager) IsAboveBullishSupport(columnIndex int, price float64) bool {
	line := m.activeLine()
	if line == nil || !line.active || line.lineType != BullishSupport {
		return false
	}
	return price > line.PriceAt(columnIndex)
}

// IsBelowBearishResistance reports whether price is strictly below an active resistance line.
func (m *TrendLineManager) IsBelowBearishResistance(columnIndex int, price float64) bool {
	line := m.activeLine()
	if line == nil || !line.active || line.lineType != BearishResistance {
		return false
	}
	return price < line.PriceAt(columnIndex)
}

// HasBullishBias reports whether the active line is a support line.
func (m *TrendLineManager) HasBullishBias() bool {
	line := m.activeLine()
	return line != nil && line.active && line.lineType == BullishSupport
}

// HasBearishBias reports whether the active line is a resistance line.
func (m *TrendLineManager) HasBearishBias() bool {
	line := m.activeLine()
	return line != nil && line.active && line.lineType == BearishResistance
}

// Bias summarises the active line.
func (m *TrendLineManager) Bias() Bias {
	switch {
	case m.HasBullishBias():
		return BiasBullish
	case m.HasBearishBias():
		return BiasBearish
	}
	return BiasNone
}

func (m *TrendLineManager) String() string {
	s := fmt.Sprintf("P&F Trendline Manager - Total Lines: %d\n", len(m.lines))
	if line := m.activeLine(); line != nil {
		s += "Active: " + line.String() + "\n"
	} else {
		s += "Active: None\n"
	}
	return s + fmt.Sprintf("Bias: %s\n", m.Bias())
}

// Bias is the trading bias implied by the active trend line.
type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasNone    Bias = "NONE"
)
