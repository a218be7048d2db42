package pnf

import (
	"math"

	"github.com/shopspring/decimal"

	apperrors "pnf-chart/internal/errors"
)

// BoxSizeMode selects how the box size is derived for an observation.
type BoxSizeMode string

const (
	BoxSizeAuto       BoxSizeMode = "auto"
	BoxSizeFixed      BoxSizeMode = "fixed"
	BoxSizePoints     BoxSizeMode = "points"
	BoxSizePercentage BoxSizeMode = "percentage"
)

// autoTiers maps an exclusive upper price bound to a box size.
var autoTiers = []struct {
	below float64
	size  float64
}{
	{0.25, 0.0625},
	{1.0, 0.125},
	{5.0, 0.25},
	{20.0, 0.5},
	{100.0, 1.0},
	{200.0, 2.0},
	{500.0, 4.0},
	{1000.0, 5.0},
	{25000.0, 50.0},
}

const autoTopTier = 500.0

// AutoBoxSize returns the traditional tiered box size for a price level.
func AutoBoxSize(price float64) float64 {
	for _, tier := range autoTiers {
		if price < tier.below {
			return tier.size
		}
	}
	return autoTopTier
}

// BoxSizer computes box sizes and box boundaries. Arithmetic on boundaries is
// done in decimal so that steps like 0.1 do not accumulate float error.
type BoxSizer struct {
	mode BoxSizeMode
	size decimal.Decimal
}

// NewBoxSizer validates the mode/size pair. size is ignored in auto mode and is a
// percent in percentage mode.
func NewBoxSizer(mode BoxSizeMode, size float64) (BoxSizer, error) {
	switch mode {
	case BoxSizeAuto:
		return BoxSizer{mode: mode}, nil
	case BoxSizeFixed, BoxSizePoints, BoxSizePercentage:
		if math.IsNaN(size) || math.IsInf(size, 0) || size <= 0 {
			return BoxSizer{}, apperrors.ConfigError("box_size", size, "must be a positive finite number")
		}
		return BoxSizer{mode: mode, size: decimal.NewFromFloat(size)}, nil
	default:
		return BoxSizer{}, apperrors.ConfigError("box_size_mode", mode, "must be auto, fixed, points or percentage")
	}
}

// Mode returns the sizing mode.
func (s BoxSizer) Mode() BoxSizeMode { return s.mode }

// PriceDependent reports whether the box size varies with price.
func (s BoxSizer) PriceDependent() bool {
	return s.mode == BoxSizeAuto || s.mode == BoxSizePercentage
}

// BoxSize returns the box size to use at price.
func (s BoxSizer) BoxSize(price float64) float64 {
	f, _ := s.boxSize(price).Float64()
	return f
}

func (s BoxSizer) boxSize(price float64) decimal.Decimal {
	switch s.mode {
	case BoxSizeFixed, BoxSizePoints:
		return s.size
	case BoxSizePercentage:
		return decimal.NewFromFloat(price).Mul(s.size).Div(decimal.NewFromInt(100))
	default:
		return decimal.NewFromFloat(AutoBoxSize(price))
	}
}

// Round snaps price to a box boundary using the box size at that price:
// ceil(price/box)*box when up, floor(price/box)*box otherwise.
func (s BoxSizer) Round(price float64, up bool) float64 {
	f, _ := roundToBox(decimal.NewFromFloat(price), s.boxSize(price), up).Float64()
	return f
}

func roundToBox(price, box decimal.Decimal, up bool) decimal.Decimal {
	q := price.Div(box)
	if up {
		return q.Ceil().Mul(box)
	}
	return q.Floor().Mul(box)
}

// boxSteps returns the box boundaries from start towards target (inclusive),
// one box apart. The count is fixed up front so the sequence cannot drift.
func boxSteps(start, target, box decimal.Decimal, up bool) []float64 {
	span := target.Sub(start)
	if !up {
		span = span.Neg()
	}
	if span.IsNegative() || !box.IsPositive() {
		return nil
	}
	n := span.Div(box).Floor().IntPart() + 1
	steps := make([]float64, 0, n)
	for i := int64(0); i < n; i++ {
		offset := box.Mul(decimal.NewFromInt(i))
		p := start.Add(offset)
		if !up {
			p = start.Sub(offset)
		}
		f, _ := p.Float64()
		steps = append(steps, f)
	}
	return steps
}
