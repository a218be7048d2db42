package pnf

import (
	"fmt"
	"strings"

	apperrors "pnf-chart/internal/errors"
)

// ConstructionType selects which prices of an observation drive the chart.
type ConstructionType string

const (
	ConstructionClose   ConstructionType = "close"
	ConstructionHighLow ConstructionType = "high_low"
)

// Config holds chart construction settings.
type Config struct {
	Construction ConstructionType `json:"construction" yaml:"construction"`
	BoxSizeMode  BoxSizeMode      `json:"box_size_mode" yaml:"box_size_mode"`
	BoxSize      float64          `json:"box_size" yaml:"box_size"`
	Reversal     int              `json:"reversal" yaml:"reversal"`
}

// DefaultConfig returns a closing-price, auto-sized, three-box reversal chart.
func DefaultConfig() Config {
	return Config{
		Construction: ConstructionClose,
		BoxSizeMode:  BoxSizeAuto,
		Reversal:     3,
	}
}

// Validate rejects settings that would make construction ill-defined.
func (c Config) Validate() error {
	if c.Construction != ConstructionClose && c.Construction != ConstructionHighLow {
		return apperrors.ConfigError("construction", c.Construction, "must be close or high_low")
	}
	if c.Reversal < 1 {
		return apperrors.ConfigError("reversal", c.Reversal, "must be at least 1")
	}
	_, err := NewBoxSizer(c.BoxSizeMode, c.BoxSize)
	return err
}

func (c Config) String() string {
	size := fmt.Sprintf("%g", c.BoxSize)
	if c.BoxSizeMode == BoxSizeAuto {
		size = "auto"
	} else if c.BoxSizeMode == BoxSizePercentage {
		size += "%"
	}
	return fmt.Sprintf("%s, box %s (%s), reversal %d", c.Construction, size, c.BoxSizeMode, c.Reversal)
}

// ParseConstruction accepts the config spellings of a construction type.
func ParseConstruction(s string) (ConstructionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "close", "closing", "closing_price":
		return ConstructionClose, nil
	case "high_low", "highlow", "hl":
		return ConstructionHighLow, nil
	}
	return "", apperrors.ConfigError("construction", s, "must be close or high_low")
}

// ParseBoxSizeMode accepts the config spellings of a box size mode.
func ParseBoxSizeMode(s string) (BoxSizeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "default", "":
		return BoxSizeAuto, nil
	case "fixed":
		return BoxSizeFixed, nil
	case "points":
		return BoxSizePoints, nil
	case "percentage", "percent", "pct":
		return BoxSizePercentage, nil
	}
	return "", apperrors.ConfigError("box_size_mode", s, "must be auto, fixed, points or percentage")
}
