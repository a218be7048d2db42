// Package metrics exposes Prometheus instrumentation for chart builds.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds all Prometheus metrics for the chart builder.
type Metrics struct {
	ObservationsTotal prometheus.Counter
	RejectedTotal     prometheus.Counter
	UpdatesTotal      prometheus.Counter

	// Columns appended, by column type.
	ColumnsTotal *prometheus.CounterVec

	// Trend lines, by event (created, broken).
	TrendLineEvents *prometheus.CounterVec

	BuildDuration prometheus.Histogram

	// Number of columns on the most recently built chart, by symbol.
	CurrentColumns *prometheus.GaugeVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// leaves them unregistered, which suits tests and one-off builds.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ObservationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pnf_observations_total",
			Help: "Total observations fed into charts",
		}),
		RejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pnf_observations_rejected_total",
			Help: "Observations rejected as invalid prices",
		}),
		UpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pnf_chart_updates_total",
			Help: "Observations that added at least one box",
		}),
		ColumnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pnf_columns_total",
			Help: "Columns built (by column type: X, O, MIXED)",
		}, []string{"type"}),
		TrendLineEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pnf_trend_line_events_total",
			Help: "Trend line lifecycle events (created, broken)",
		}, []string{"event"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pnf_build_duration_seconds",
			Help:    "Time to build a chart from a candle series",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		CurrentColumns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pnf_current_columns",
			Help: "Columns on the last chart built for a symbol",
		}, []string{"symbol"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ObservationsTotal,
			m.RejectedTotal,
			m.UpdatesTotal,
			m.ColumnsTotal,
			m.TrendLineEvents,
			m.BuildDuration,
			m.CurrentColumns,
		)
	}

	return m
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr   string
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer creates a metrics server for the metrics gathered by g.
func NewServer(addr string, g prometheus.Gatherer, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok\n"))
	})

	return &Server{
		addr:   addr,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("Metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Str("addr", s.addr).Msg("Metrics server error")
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
