package pnf

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "pnf-chart/internal/errors"
)

// priceEpsilon is the tolerance used when matching prices across columns.
const priceEpsilon = 0.00001

// State is the construction state of a chart, named after its last column.
type State int

const (
	StateNoColumn State = iota
	StateUp
	StateDown
	StateMixed
)

func (s State) String() string {
	switch s {
	case StateUp:
		return "UP"
	case StateDown:
		return "DOWN"
	case StateMixed:
		return "MIXED"
	}
	return "NO_COLUMN"
}

func stateFor(t ColumnType) State {
	switch t {
	case ColumnX:
		return StateUp
	case ColumnO:
		return StateDown
	}
	return StateMixed
}

// ColumnReader is the read-only view collaborators use to consume a chart.
type ColumnReader interface {
	ColumnCount() int
	Column(index int) *Column
	AllPrices() []float64
	TrendLines() *TrendLineManager
}

// Option configures a Chart.
type Option func(*Chart)

// WithLogger sets the logger used for construction debug events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Chart) {
		c.logger = logger
	}
}

// Chart is a Point-and-Figure chart. It is not safe for concurrent use; feed it
// from a single goroutine in timestamp order.
type Chart struct {
	cfg     Config
	sizer   BoxSizer
	boxSize float64 // nominal size; refreshed per observation in auto and percentage mode

	columns       []*Column
	state         State
	lastProcessed time.Time
	observed      bool
	trendLines    *TrendLineManager
	logger        zerolog.Logger
}

// NewChart validates cfg and returns an empty chart.
func NewChart(cfg Config, opts ...Option) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sizer, err := NewBoxSizer(cfg.BoxSizeMode, cfg.BoxSize)
	if err != nil {
		return nil, err
	}

	c := &Chart{
		cfg:     cfg,
		sizer:   sizer,
		boxSize: cfg.BoxSize,
		state:   StateNoColumn,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.trendLines = NewTrendLineManager(c.boxSize)
	c.trendLines.logger = c.logger
	return c, nil
}

// Config returns the construction settings.
func (c *Chart) Config() Config { return c.cfg }

// BoxSize returns the nominal box size. In auto and percentage mode this is the
// size computed for the most recent observation.
func (c *Chart) BoxSize() float64 { return c.boxSize }

// Reversal returns the reversal box count.
func (c *Chart) Reversal() int { return c.cfg.Reversal }

// State returns the construction state.
func (c *Chart) State() State { return c.state }

// BoxSizeAt returns the box size the chart would use at price.
func (c *Chart) BoxSizeAt(price float64) float64 { return c.sizer.BoxSize(price) }

// RoundToBoxSize snaps price to a box boundary using the box size at price.
func (c *Chart) RoundToBoxSize(price float64, up bool) float64 { return c.sizer.Round(price, up) }

// AddPrice feeds a single price observation.
func (c *Chart) AddPrice(price float64, t time.Time) (bool, error) {
	return c.AddData(price, price, price, t)
}

// AddData feeds one observation. It reports whether any box was added; an
// observation that neither extends the last column nor reverses it is absorbed.
func (c *Chart) AddData(high, low, close float64, t time.Time) (bool, error) {
	if err := c.validateObservation(high, low, close); err != nil {
		return false, err
	}
	if c.trendLines == nil {
		panic("pnf: chart has no trend line manager")
	}

	marker := MonthMarker(t.Month())
	if c.observed {
		marker, _ = monthChanged(c.lastProcessed, t)
	}
	c.lastProcessed = t
	c.observed = true

	ref := close
	if c.cfg.Construction == ConstructionHighLow {
		ref = high
	}
	box := c.sizer.boxSize(ref)
	if c.sizer.PriceDependent() {
		c.boxSize, _ = box.Float64()
		c.trendLines.SetBoxSize(c.boxSize)
	}

	switch c.state {
	case StateNoColumn:
		c.startChart(ref, box, marker)
		return true, nil
	default:
		if dir, price, ok := c.detectReversal(high, low, close, box); ok {
			return c.reverse(dir, price, box, marker), nil
		}
		return c.extend(high, low, close, box, marker), nil
	}
}

func (c *Chart) validateObservation(high, low, close float64) error {
	for _, p := range []struct {
		name  string
		value float64
	}{{"high", high}, {"low", low}, {"close", close}} {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value <= 0 {
			return fmt.Errorf("%w: %w", apperrors.ErrInvalidObservation,
				apperrors.NewValidationError(p.name, p.value, "must be a positive finite price"))
		}
	}
	if c.cfg.Construction == ConstructionHighLow && high < low {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidObservation,
			apperrors.NewValidationError("high", high, fmt.Sprintf("below low %g", low)))
	}
	return nil
}

func (c *Chart) startChart(price float64, box decimal.Decimal, marker string) {
	col := NewColumn(ColumnX)
	start, _ := roundToBox(decimal.NewFromFloat(price), box, false).Float64()
	col.AddBoxWithMarker(start, BoxX, marker)
	c.appendColumn(col)
}

// IsReversal reports whether price reverses the last column at the given box
// size, and in which direction the new column would run.
func (c *Chart) IsReversal(price, boxSize float64) (BoxType, bool) {
	return c.isReversal(price, decimal.NewFromFloat(boxSize))
}

func (c *Chart) isReversal(price float64, box decimal.Decimal) (BoxType, bool) {
	last := c.LastColumn()
	if last == nil || last.BoxCount() == 0 {
		return "", false
	}
	p := decimal.NewFromFloat(price)
	high := decimal.NewFromFloat(last.Highest())
	low := decimal.NewFromFloat(last.Lowest())
	threshold := box.Mul(decimal.NewFromInt(int64(c.cfg.Reversal)))

	switch c.state {
	case StateUp:
		if p.LessThanOrEqual(high.Sub(threshold)) {
			return BoxO, true
		}
	case StateDown:
		if p.GreaterThanOrEqual(low.Add(threshold)) {
			return BoxX, true
		}
	case StateMixed:
		if c.cfg.Reversal != 1 {
			return "", false
		}
		if p.GreaterThan(high.Add(box)) {
			return BoxX, true
		}
		if p.LessThan(low.Sub(box)) {
			return BoxO, true
		}
	}
	return "", false
}

// detectReversal picks the price that reverses the last column. In high/low
// construction the high is tested for an upward reversal before the low is
// tested for a downward one.
func (c *Chart) detectReversal(high, low, close float64, box decimal.Decimal) (BoxType, float64, bool) {
	if c.cfg.Construction == ConstructionClose {
		dir, ok := c.isReversal(close, box)
		return dir, close, ok
	}
	if dir, ok := c.isReversal(high, box); ok && dir == BoxX {
		return BoxX, high, true
	}
	if dir, ok := c.isReversal(low, box); ok && dir == BoxO {
		return BoxO, low, true
	}
	return "", 0, false
}

func (c *Chart) reverse(dir BoxType, price float64, box decimal.Decimal, marker string) bool {
	last := c.LastColumn()

	colType := ColumnX
	if dir == BoxO {
		colType = ColumnO
	}
	if c.cfg.Reversal == 1 {
		colType = ColumnMixed
	}
	col := NewColumn(colType)

	target := decimal.NewFromFloat(price)
	var steps []float64
	if dir == BoxX {
		start := decimal.NewFromFloat(last.Lowest()).Add(box)
		steps = boxSteps(start, roundToBox(target, box, true), box, true)
	} else {
		start := decimal.NewFromFloat(last.Highest()).Sub(box)
		steps = boxSteps(start, roundToBox(target, box, false), box, false)
	}
	fill(col, steps, func(float64) BoxType { return dir }, marker)

	c.appendColumn(col)
	c.trendLines.UpdateTrendLines(c.columns, len(c.columns)-1)
	return col.BoxCount() > 0
}

func (c *Chart) extend(high, low, close float64, box decimal.Decimal, marker string) bool {
	last := c.LastColumn()
	up, down := close, close
	if c.cfg.Construction == ConstructionHighLow {
		up, down = high, low
	}

	added := 0
	mixed := last.Type() == ColumnMixed

	if (last.Type() == ColumnX || mixed) && up > last.Highest() {
		start := decimal.NewFromFloat(last.Highest()).Add(box)
		steps := boxSteps(start, roundToBox(decimal.NewFromFloat(up), box, true), box, true)
		n := fill(last, steps, func(p float64) BoxType {
			if mixed && p <= last.Lowest() {
				return BoxO
			}
			return BoxX
		}, marker)
		if n > 0 {
			marker = ""
		}
		added += n
	}
	if (last.Type() == ColumnO || mixed) && down < last.Lowest() {
		start := decimal.NewFromFloat(last.Lowest()).Sub(box)
		steps := boxSteps(start, roundToBox(decimal.NewFromFloat(down), box, false), box, false)
		added += fill(last, steps, func(p float64) BoxType {
			if mixed && p >= last.Highest() {
				return BoxX
			}
			return BoxO
		}, marker)
	}

	if added > 0 {
		c.logger.Debug().
			Int("column", len(c.columns)-1).
			Str("type", string(last.Type())).
			Int("boxes", added).
			Float64("high", last.Highest()).
			Float64("low", last.Lowest()).
			Msg("Column extended")
	}
	return added > 0
}

// fill adds a box at each step, putting marker on the first box actually
// added. Steps that collide with an existing box are skipped.
func fill(col *Column, steps []float64, typeFor func(price float64) BoxType, marker string) int {
	added := 0
	for _, p := range steps {
		if col.AddBoxWithMarker(p, typeFor(p), marker) {
			marker = ""
			added++
		}
	}
	return added
}

func (c *Chart) appendColumn(col *Column) {
	c.columns = append(c.columns, col)
	c.state = stateFor(col.Type())
	c.logger.Debug().
		Int("column", len(c.columns)-1).
		Str("type", string(col.Type())).
		Int("boxes", col.BoxCount()).
		Float64("high", col.Highest()).
		Float64("low", col.Lowest()).
		Float64("box_size", c.boxSize).
		Msg("Column formed")
}

// ColumnCount returns the number of columns.
func (c *Chart) ColumnCount() int { return len(c.columns) }

// Column returns the column at index. It panics when index is out of range.
func (c *Chart) Column(index int) *Column { return c.columns[index] }

// LastColumn returns the newest column, or nil for an empty chart.
func (c *Chart) LastColumn() *Column {
	if len(c.columns) == 0 {
		return nil
	}
	return c.columns[len(c.columns)-1]
}

// Columns returns the columns in order. The slice is a copy; the columns are not.
func (c *Chart) Columns() []*Column {
	out := make([]*Column, len(c.columns))
	copy(out, c.columns)
	return out
}

// TrendLines returns the chart's trend line manager.
func (c *Chart) TrendLines() *TrendLineManager { return c.trendLines }

func (c *Chart) countType(t ColumnType) int {
	n := 0
	for _, col := range c.columns {
		if col.Type() == t {
			n++
		}
	}
	return n
}

func (c *Chart) indicesOf(t ColumnType) []int {
	indices := make([]int, 0, len(c.columns))
	for i, col := range c.columns {
		if col.Type() == t {
			indices = append(indices, i)
		}
	}
	return indices
}

func (c *Chart) XColumnCount() int { return c.countType(ColumnX) }
func (c *Chart) OColumnCount() int { return c.countType(ColumnO) }
func (c *Chart) MixedColumnCount() int { return c.countType(ColumnMixed) }
func (c *Chart) XColumnIndices() []int { return c.indicesOf(ColumnX) }
func (c *Chart) OColumnIndices() []int { return c.indicesOf(ColumnO) }
func (c *Chart) MixedColumnIndices() []int { return c.indicesOf(ColumnMixed) }
func (c *Chart) HasBullishBias() bool { return c.trendLines.HasBullishBias() }
func (c *Chart) HasBearishBias() bool { return c.trendLines.HasBearishBias() }
func (c *Chart) Bias() Bias { return c.trendLines.Bias() }

// ShouldTakeBullishSignals is true under a bullish bias or when there is no bias.
func (c *Chart) ShouldTakeBullishSignals() bool {
	return c.HasBullishBias() || !c.HasBearishBias()
}

// ShouldTakeBearishSignals is true under a bearish bias or when there is no bias.
func (c *Chart) ShouldTakeBearishSignals() bool {
	return c.HasBearishBias() || !c.HasBullishBias()
}

// IsAboveBullishSupport checks price against the active support at the last column.
func (c *Chart) IsAboveBullishSupport(price float64) bool {
	return c.trendLines.IsAboveBullishSupport(len(c.columns)-1, price)
}

// IsBelowBearishResistance checks price against the active resistance at the last column.
func (c *Chart) IsBelowBearishResistance(price float64) bool {
	return c.trendLines.IsBelowBearishResistance(len(c.columns)-1, price)
}

// AllPrices returns every box price on the chart, deduplicated and sorted
// from highest to lowest.
func (c *Chart) AllPrices() []float64 {
	var prices []float64
	for _, col := range c.columns {
		for _, b := range col.boxes {
			if !containsPrice(prices, b.price) {
				prices = append(prices, b.price)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(prices)))
	return prices
}

func containsPrice(prices []float64, p float64) bool {
	for _, existing := range prices {
		if math.Abs(existing-p) < priceEpsilon {
			return true
		}
	}
	return false
}

// Clear empties the chart but keeps its configuration.
func (c *Chart) Clear() {
	c.columns = nil
	c.state = StateNoColumn
	c.lastProcessed = time.Time{}
	c.observed = false
	c.boxSize = c.cfg.BoxSize
	c.trendLines.Clear()
	c.trendLines.SetBoxSize(c.boxSize)
}

func (c *Chart) String() string {
	var sb strings.Builder
	sb.WriteString("Point & Figure Chart\n")
	fmt.Fprintf(&sb, "Construction: %s, Box Size: %s (%.5f), Reversal: %d\n",
		c.cfg.Construction, c.cfg.BoxSizeMode, c.boxSize, c.cfg.Reversal)
	fmt.Fprintf(&sb, "Columns: %d\n", len(c.columns))
	fmt.Fprintf(&sb, "Trend Bias: %s\n\n", c.Bias())
	for i, col := range c.columns {
		fmt.Fprintf(&sb, "Column %d:\n%s\n", i+1, col.String())
	}
	sb.WriteString(c.trendLines.String())
	return sb.String()
}
