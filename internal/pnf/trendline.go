package pnf

import (
	"fmt"
	"math"
)

// TrendLineType distinguishes support lines from resistance lines.
type TrendLineType string

const (
	BullishSupport    TrendLineType = "BULLISH_SUPPORT"
	BearishResistance TrendLineType = "BEARISH_RESISTANCE"
)

func (t TrendLineType) String() string {
	if t == BullishSupport {
		return "Bullish Support"
	}
	return "Bearish Resistance"
}

// TrendLinePoint locates a line anchor on the chart.
type TrendLinePoint struct {
	ColumnIndex int     `json:"column_index" yaml:"column_index"`
	Price       float64 `json:"price" yaml:"price"`
	BoxIndex    int     `json:"box_index" yaml:"box_index"`
}

// TrendLine is a 45-degree line rising (support) or falling (resistance) one
// box per column from its start point.
type TrendLine struct {
	lineType   TrendLineType
	start      TrendLinePoint
	end        TrendLinePoint
	boxSize    float64
	active     bool
	wasTouched bool
	touchCount int
}

// NewTrendLine creates an active line anchored at the given column and price.
func NewTrendLine(lineType TrendLineType, startColumn int, startPrice float64, startBox int, boxSize float64) TrendLine {
	start := TrendLinePoint{ColumnIndex: startColumn, Price: startPrice, BoxIndex: startBox}
	return TrendLine{
		lineType: lineType,
		start:    start,
		end:      start,
		boxSize:  boxSize,
		active:   true,
	}
}

func (l TrendLine) Type() TrendLineType { return l.lineType }
func (l TrendLine) Start() TrendLinePoint { return l.start }
func (l TrendLine) End() TrendLinePoint { return l.end }
func (l TrendLine) BoxSize() float64 { return l.boxSize }
func (l TrendLine) IsActive() bool { return l.active }
func (l TrendLine) WasTouched() bool { return l.wasTouched }
func (l TrendLine) TouchCount() int { return l.touchCount }

// SetActive flips the active flag.
func (l *TrendLine) SetActive(active bool) { l.active = active }

// UpdateEndPoint records the last column the line was evaluated at.
func (l *TrendLine) UpdateEndPoint(columnIndex int, price float64, boxIndex int) {
	l.end = TrendLinePoint{ColumnIndex: columnIndex, Price: price, BoxIndex: boxIndex}
}

// PriceAt projects the line to a column. Columns before the start return 0.
func (l TrendLine) PriceAt(columnIndex int) float64 {
	if columnIndex < l.start.ColumnIndex {
		return 0
	}
	offset := float64(columnIndex-l.start.ColumnIndex) * l.boxSize
	if l.lineType == BullishSupport {
		return l.start.Price + offset
	}
	return l.start.Price - offset
}

// IsBroken reports whether price closes more than one box beyond the line.
func (l TrendLine) IsBroken(columnIndex int, price float64) bool {
	if !l.active || columnIndex <= l.start.ColumnIndex {
		return false
	}
	linePrice := l.PriceAt(columnIndex)
	if l.lineType == BullishSupport {
		return price < linePrice-l.boxSize
	}
	return price > linePrice+l.boxSize
}

// Test counts a touch when price comes within half a box of the line.
func (l *TrendLine) Test(columnIndex int, price float64) bool {
	if !l.active || columnIndex <= l.start.ColumnIndex {
		return false
	}
	linePrice := l.PriceAt(columnIndex)
	l.UpdateEndPoint(columnIndex, linePrice, l.end.BoxIndex)
	if math.Abs(price-linePrice) < l.boxSize*0.5 {
		l.wasTouched = true
		l.touchCount++
		return true
	}
	return false
}

func (l TrendLine) String() string {
	active := "No"
	if l.active {
		active = "Yes"
	}
	return fmt.Sprintf("%s Line: Start(Col:%d, Price:%.5f) Active:%s Touched:%d times",
		l.lineType, l.start.ColumnIndex, l.start.Price, active, l.touchCount)
}
