// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"pnf-chart/internal/models"
)

// DataStore defines the interface for candle persistence.
type DataStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
	GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error)
	DeleteCandles(ctx context.Context, symbol, timeframe string) (int64, error)
	ListSymbols(ctx context.Context) ([]SymbolInfo, error)

	// Sync
	GetLastSync(dataType string) time.Time
	SetLastSync(dataType string, t time.Time) error

	// Lifecycle
	Close() error
}

// SymbolInfo summarises the candles stored for one symbol and timeframe.
type SymbolInfo struct {
	Symbol    string `json:"symbol" yaml:"symbol"`
	Timeframe string `json:"timeframe" yaml:"timeframe"`
	Candles   int    `json:"candles" yaml:"candles"`
}

// ImportSyncKey is the sync_status key recording the last import of a series.
func ImportSyncKey(symbol, timeframe string) string {
	return "import:" + symbol + ":" + timeframe
}
