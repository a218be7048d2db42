// Package builder feeds candle series into Point-and-Figure charts.
package builder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "pnf-chart/internal/errors"
	"pnf-chart/internal/logging"
	"pnf-chart/internal/metrics"
	"pnf-chart/internal/models"
	"pnf-chart/internal/pnf"
)

// Summary describes the outcome of one build.
type Summary struct {
	Symbol           string        `json:"symbol" yaml:"symbol"`
	Timeframe        string        `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	Observations     int           `json:"observations" yaml:"observations"`
	Updates          int           `json:"updates" yaml:"updates"`
	Rejected         int           `json:"rejected" yaml:"rejected"`
	Columns          int           `json:"columns" yaml:"columns"`
	XColumns         int           `json:"x_columns" yaml:"x_columns"`
	OColumns         int           `json:"o_columns" yaml:"o_columns"`
	MixedColumns     int           `json:"mixed_columns" yaml:"mixed_columns"`
	TrendLines       int           `json:"trend_lines" yaml:"trend_lines"`
	BrokenTrendLines int           `json:"broken_trend_lines" yaml:"broken_trend_lines"`
	BoxSize          float64       `json:"box_size" yaml:"box_size"`
	Bias             pnf.Bias      `json:"bias" yaml:"bias"`
	LastClose        float64       `json:"last_close" yaml:"last_close"`
	Duration         time.Duration `json:"duration" yaml:"duration"`
}

// CandleProvider supplies stored candles. store.DataStore satisfies it.
type CandleProvider interface {
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
}

// Builder builds charts with a fixed configuration.
type Builder struct {
	cfg     pnf.Config
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates a builder. m may be nil.
func New(cfg pnf.Config, m *metrics.Metrics, logger zerolog.Logger) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, metrics: m, logger: logger}, nil
}

// Config returns the chart configuration used for new charts.
func (b *Builder) Config() pnf.Config { return b.cfg }

// NewChart returns an empty chart using the builder's configuration.
func (b *Builder) NewChart() (*pnf.Chart, error) {
	return pnf.NewChart(b.cfg, pnf.WithLogger(b.logger))
}

// BuildSeries builds a fresh chart from series.
func (b *Builder) BuildSeries(ctx context.Context, series models.Series) (*pnf.Chart, Summary, error) {
	chart, err := b.NewChart()
	if err != nil {
		return nil, Summary{}, err
	}
	summary, err := b.Build(ctx, chart, series.Symbol, series.Candles)
	summary.Timeframe = series.Timeframe
	return chart, summary, err
}

// Build feeds candles into chart in order. Observations the chart rejects as
// invalid prices are counted and skipped; cancellation of ctx stops the build
// between observations and returns the partial summary with ctx's error.
func (b *Builder) Build(ctx context.Context, chart *pnf.Chart, symbol string, candles []models.Candle) (Summary, error) {
	start := time.Now()
	logger := logging.WithSymbol(b.logger, symbol)

	startColumns := chart.ColumnCount()
	startLines := chart.TrendLines().Len()
	startBroken := brokenLines(chart.TrendLines())

	summary := Summary{Symbol: symbol}
	var buildErr error
	for _, c := range candles {
		if err := ctx.Err(); err != nil {
			buildErr = err
			break
		}
		summary.Observations++
		added, err := chart.AddData(c.High, c.Low, c.Close, c.Timestamp)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrInvalidObservation) {
				buildErr = err
				break
			}
			summary.Rejected++
			logger.Debug().Err(err).Time("timestamp", c.Timestamp).Msg("Observation rejected")
			continue
		}
		summary.LastClose = c.Close
		if added {
			summary.Updates++
		}
	}

	summary.Columns = chart.ColumnCount()
	summary.XColumns = chart.XColumnCount()
	summary.OColumns = chart.OColumnCount()
	summary.MixedColumns = chart.MixedColumnCount()
	summary.TrendLines = chart.TrendLines().Len()
	summary.BrokenTrendLines = brokenLines(chart.TrendLines())
	summary.BoxSize = chart.BoxSize()
	summary.Bias = chart.Bias()
	summary.Duration = time.Since(start)

	b.record(chart, summary, startColumns, summary.TrendLines-startLines, summary.BrokenTrendLines-startBroken)
	logging.LogBuildSummary(logger, symbol, summary.Observations, summary.Columns,
		summary.TrendLines, string(summary.Bias), summary.Duration)

	return summary, buildErr
}

func brokenLines(m *pnf.TrendLineManager) int {
	return m.Len() - m.ActiveCount()
}

func (b *Builder) record(chart *pnf.Chart, s Summary, fromColumn, created, broken int) {
	if b.metrics == nil {
		return
	}
	b.metrics.ObservationsTotal.Add(float64(s.Observations))
	b.metrics.RejectedTotal.Add(float64(s.Rejected))
	b.metrics.UpdatesTotal.Add(float64(s.Updates))
	for i := fromColumn; i < chart.ColumnCount(); i++ {
		b.metrics.ColumnsTotal.WithLabelValues(string(chart.Column(i).Type())).Inc()
	}
	b.metrics.TrendLineEvents.WithLabelValues("created").Add(float64(created))
	b.metrics.TrendLineEvents.WithLabelValues("broken").Add(float64(broken))
	b.metrics.BuildDuration.Observe(s.Duration.Seconds())
	b.metrics.CurrentColumns.WithLabelValues(s.Symbol).Set(float64(s.Columns))
}

// Request names a stored series to build.
type Request struct {
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
}

// Result is the outcome of building one requested series.
type Result struct {
	Request Request
	Chart   *pnf.Chart
	Summary Summary
	Err     error
}

// Scan builds a chart for every request using up to concurrency workers and
// returns one Result per request, sorted by symbol then timeframe. A failed
// series is reported in its Result and does not stop the others; requests not
// yet started when ctx is cancelled carry ctx.Err().
func (b *Builder) Scan(ctx context.Context, provider CandleProvider, requests []Request, concurrency int) []Result {
	if len(requests) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	work := make(chan Request)
	results := make(chan Result, len(requests))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range work {
				results <- b.scanOne(ctx, provider, req)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(work)
		for i, req := range requests {
			select {
			case <-ctx.Done():
				for _, skipped := range requests[i:] {
					results <- Result{Request: skipped, Err: ctx.Err()}
				}
				return
			case work <- req:
			}
		}
	}()

	wg.Wait()
	close(results)

	out := make([]Result, 0, len(requests))
	for r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Request.Symbol != out[j].Request.Symbol {
			return out[i].Request.Symbol < out[j].Request.Symbol
		}
		return out[i].Request.Timeframe < out[j].Request.Timeframe
	})
	return out
}

func (b *Builder) scanOne(ctx context.Context, provider CandleProvider, req Request) Result {
	res := Result{Request: req}
	candles, err := provider.GetCandles(ctx, req.Symbol, req.Timeframe, req.From, req.To)
	if err != nil {
		res.Err = fmt.Errorf("load %s %s: %w", req.Symbol, req.Timeframe, err)
		return res
	}
	res.Chart, res.Summary, res.Err = b.BuildSeries(ctx, models.Series{
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Candles:   candles,
	})
	return res
}
