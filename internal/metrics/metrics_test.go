package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObservationsTotal.Add(3)
	m.ColumnsTotal.WithLabelValues("X").Inc()
	m.TrendLineEvents.WithLabelValues("created").Inc()
	m.CurrentColumns.WithLabelValues("EURUSD").Set(4)

	if got := testutil.ToFloat64(m.ObservationsTotal); got != 3 {
		t.Errorf("observations = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.CurrentColumns.WithLabelValues("EURUSD")); got != 4 {
		t.Errorf("current columns = %v, want 4", got)
	}

	n, err := testutil.GatherAndCount(reg, "pnf_columns_total", "pnf_trend_line_events_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if n != 2 {
		t.Errorf("series = %d, want 2", n)
	}
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	m := NewMetrics(nil)
	m.RejectedTotal.Inc()
	if got := testutil.ToFloat64(m.RejectedTotal); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.UpdatesTotal.Add(7)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "pnf_chart_updates_total 7") {
		t.Errorf("metrics body missing counter:\n%s", body)
	}
}

func TestServerRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	s := NewServer("127.0.0.1:0", reg, zerolog.Nop())

	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "pnf_build_duration_seconds") {
		t.Errorf("metrics route missing histogram")
	}
}
