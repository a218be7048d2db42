// Package models provides the market data types shared by the store, the
// CSV loader and the chart builder.
package models

import (
	"time"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Open      float64   `json:"open" yaml:"open"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Close     float64   `json:"close" yaml:"close"`
	Volume    int64     `json:"volume" yaml:"volume"`
}

// Series is an ordered run of candles for one symbol and timeframe.
type Series struct {
	Symbol    string   `json:"symbol" yaml:"symbol"`
	Timeframe string   `json:"timeframe" yaml:"timeframe"`
	Candles   []Candle `json:"candles" yaml:"candles"`
}

// Len returns the number of candles.
func (s Series) Len() int { return len(s.Candles) }

// First returns the timestamp of the oldest candle, or zero for an empty series.
func (s Series) First() time.Time {
	if len(s.Candles) == 0 {
		return time.Time{}
	}
	return s.Candles[0].Timestamp
}

// Last returns the timestamp of the newest candle, or zero for an empty series.
func (s Series) Last() time.Time {
	if len(s.Candles) == 0 {
		return time.Time{}
	}
	return s.Candles[len(s.Candles)-1].Timestamp
}
