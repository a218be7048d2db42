package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"pnf-chart/internal/builder"
	"pnf-chart/internal/config"
	apperrors "pnf-chart/internal/errors"
	"pnf-chart/internal/pnf"
	"pnf-chart/internal/store"
)

// swingCloses charts as six alternating columns on a 1-point box ending with
// an active bearish resistance line.
var swingCloses = []float64{100, 105, 99, 103, 100, 104, 98}

func writeCSV(t *testing.T, dir, name string, closes ...float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("timestamp,date,open,high,low,close,volume\n")
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		ts := day.AddDate(0, 0, i)
		fmt.Fprintf(&b, "%s,%s,%g,%g,%g,%g,100\n",
			ts.Format("2006.01.02 15:04:05"), ts.Format("2006-01-02"), c, c, c, c)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes one CLI invocation against the config in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	root := NewRootCmd(cfg, zerolog.Nop())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil || v["version"] != Version {
		t.Errorf("version output = %q (%v)", out, err)
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "config", "path")
	if err != nil || strings.TrimSpace(out) != filepath.Join(dir, "config.toml") {
		t.Errorf("config path = %q, %v", out, err)
	}

	out, err = run(t, dir, "config", "validate")
	if err != nil || !strings.Contains(out, "Configuration is valid") {
		t.Errorf("config validate = %q, %v", out, err)
	}

	out, err = run(t, dir, "config", "show")
	if err != nil || !strings.Contains(out, "Reversal:      3") {
		t.Errorf("config show = %q, %v", out, err)
	}
}

func TestChart_TextFromCSV(t *testing.T) {
	dir := t.TempDir()
	csv := writeCSV(t, dir, "eurusd.csv", swingCloses...)

	out, err := run(t, dir, "chart", csv, "--mode", "fixed", "--box-size", "1")
	if err != nil {
		t.Fatalf("chart: %v\n%s", err, out)
	}

	for _, want := range []string{
		"EURUSD 1d",
		"Columns:      6 (X 3, O 3, mixed 0)",
		"Trend lines:  2 (1 broken)",
		"Bias:         BEARISH",
		"105 | X . . . . .",
		"103 | X O X . X O",
		"100 | 1 O X O . O",
		" 98 | . . . . . O",
		"Bearish Resistance",
		"col 4 @ 104",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestChart_BoxSizeFlagImpliesFixedMode(t *testing.T) {
	dir := t.TempDir()
	csv := writeCSV(t, dir, "x.csv", 100, 103)

	out, err := run(t, dir, "chart", csv, "--box-size", "0.5", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var report chartReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if report.Chart.Config.BoxSizeMode != pnf.BoxSizeFixed || report.Summary.BoxSize != 0.5 {
		t.Errorf("config = %+v, box %v", report.Chart.Config, report.Summary.BoxSize)
	}
	if len(report.Grid.Rows) != 7 {
		t.Errorf("grid rows = %d, want 7 (100 to 103 by 0.5)", len(report.Grid.Rows))
	}
}

func TestChart_YAML(t *testing.T) {
	dir := t.TempDir()
	csv := writeCSV(t, dir, "eurusd.csv", swingCloses...)

	out, err := run(t, dir, "chart", csv, "--mode", "fixed", "--box-size", "1", "-f", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	var report struct {
		Summary struct {
			Columns int    `yaml:"columns"`
			Bias    string `yaml:"bias"`
		} `yaml:"summary"`
		Chart struct {
			TrendLines []struct {
				Type   string `yaml:"type"`
				Active bool   `yaml:"active"`
			} `yaml:"trend_lines"`
		} `yaml:"chart"`
	}
	if err := yaml.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("yaml: %v\n%s", err, out)
	}
	if report.Summary.Columns != 6 || report.Summary.Bias != "BEARISH" {
		t.Errorf("summary = %+v", report.Summary)
	}
	if len(report.Chart.TrendLines) != 2 || report.Chart.TrendLines[0].Active || !report.Chart.TrendLines[1].Active {
		t.Errorf("trend lines = %+v", report.Chart.TrendLines)
	}
}

func TestChart_Errors(t *testing.T) {
	dir := t.TempDir()
	csv := writeCSV(t, dir, "x.csv", 100, 101)

	if _, err := run(t, dir, "chart", csv, "--format", "xml"); err == nil {
		t.Error("unknown format accepted")
	}
	if _, err := run(t, dir, "chart", csv, "--reversal", "0"); !apperrors.Is(err, apperrors.ErrConfigInvalid) {
		t.Errorf("reversal 0 error = %v, want ErrConfigInvalid", err)
	}
	if _, err := run(t, dir, "chart"); err == nil {
		t.Error("chart without a CSV or --symbol succeeded")
	}
	if _, err := run(t, dir, "chart", csv, "--from", "2024-02-01", "--to", "2024-01-01"); err == nil {
		t.Error("inverted range accepted")
	}
}

func TestChart_DateRangeFromCSV(t *testing.T) {
	dir := t.TempDir()
	csv := writeCSV(t, dir, "eurusd.csv", swingCloses...)

	// Candles from Jan 2 to Jan 4 are 100, 105, 99.
	out, err := run(t, dir, "chart", csv, "--mode", "fixed", "--box-size", "1",
		"--to", "2024-01-04", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var report chartReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatal(err)
	}
	if report.Summary.Observations != 3 || report.Summary.Columns != 2 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

func TestImportChartExportDelete(t *testing.T) {
	dir := t.TempDir()
	csv := writeCSV(t, dir, "data.csv", swingCloses...)

	out, err := run(t, dir, "import", csv, "--symbol", "eurusd", "--timeframe", "1d")
	if err != nil || !strings.Contains(out, "Imported 7 1d candles for EURUSD") {
		t.Fatalf("import = %q, %v", out, err)
	}

	out, err = run(t, dir, "symbols", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var symbols []store.SymbolInfo
	if err := json.Unmarshal([]byte(out), &symbols); err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 1 || symbols[0] != (store.SymbolInfo{Symbol: "EURUSD", Timeframe: "1d", Candles: 7}) {
		t.Errorf("symbols = %+v", symbols)
	}

	out, err = run(t, dir, "symbols")
	if err != nil || !strings.Contains(out, "EURUSD") || !strings.Contains(out, "2024-01-08") {
		t.Errorf("symbols table = %q, %v", out, err)
	}

	out, err = run(t, dir, "chart", "--symbol", "EURUSD", "--mode", "fixed", "--box-size", "1", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var report chartReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatal(err)
	}
	if report.Summary.Columns != 6 || report.Summary.Bias != pnf.BiasBearish {
		t.Errorf("stored chart summary = %+v", report.Summary)
	}

	out, err = run(t, dir, "trendlines", "--symbol", "EURUSD", "--mode", "fixed", "--box-size", "1")
	if err != nil || !strings.Contains(out, "Bullish Support") || !strings.Contains(out, "Bias: BEARISH") {
		t.Errorf("trendlines = %q, %v", out, err)
	}

	out, err = run(t, dir, "export", "EURUSD", "--from", "2024-01-03")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 7 || lines[0] != "timestamp,date,open,high,low,close,volume" ||
		!strings.HasPrefix(lines[1], "2024.01.03 00:00:00,2024-01-03,105,") {
		t.Errorf("export = %q", out)
	}

	out, err = run(t, dir, "delete", "EURUSD")
	if err != nil || !strings.Contains(out, "Deleted 7 1d candles for EURUSD") {
		t.Errorf("delete = %q, %v", out, err)
	}

	if _, err := run(t, dir, "chart", "--symbol", "EURUSD"); !apperrors.Is(err, apperrors.ErrDataNotFound) {
		t.Errorf("chart after delete error = %v, want ErrDataNotFound", err)
	}
}

func TestImport_Replace(t *testing.T) {
	dir := t.TempDir()
	first := writeCSV(t, dir, "abc.csv", 100, 101, 102, 103)
	if _, err := run(t, dir, "import", first); err != nil {
		t.Fatal(err)
	}

	second := filepath.Join(t.TempDir(), "abc.csv")
	if err := os.WriteFile(second, []byte("timestamp,date,open,high,low,close\n2023.06.01 00:00:00,,5,5,5,5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, dir, "import", second, "--replace", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res map[string]interface{}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res["symbol"] != "ABC" || res["candles"] != float64(1) || res["replaced"] != float64(4) {
		t.Errorf("import result = %v", res)
	}
}

func TestImport_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	os.WriteFile(path, []byte("timestamp,date,open,high,low,close\n2024.01.02 00:00:00,,1,x,1,1\n"), 0644)

	_, err := run(t, dir, "import", path)
	var dataErr *apperrors.DataError
	if !apperrors.As(err, &dataErr) || dataErr.Message != "row 2" {
		t.Errorf("import error = %v, want DataError for row 2", err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "import", writeCSV(t, dir, "eurusd.csv", swingCloses...)); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "import", writeCSV(t, dir, "gbpusd.csv", 100, 101, 102)); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, dir, "scan", "--mode", "fixed", "--box-size", "1", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var summaries []builder.Summary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 || summaries[0].Symbol != "EURUSD" || summaries[0].Bias != pnf.BiasBearish ||
		summaries[1].Symbol != "GBPUSD" || summaries[1].Bias != pnf.BiasNone {
		t.Errorf("scan = %+v", summaries)
	}

	out, err = run(t, dir, "scan", "--mode", "fixed", "--box-size", "1", "--bias", "bearish")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "EURUSD") || strings.Contains(out, "GBPUSD") || !strings.Contains(out, "O 98-103") {
		t.Errorf("filtered scan = %q", out)
	}
}

func TestSymbols_Empty(t *testing.T) {
	out, err := run(t, t.TempDir(), "symbols")
	if err != nil || !strings.Contains(out, "No candles stored") {
		t.Errorf("symbols = %q, %v", out, err)
	}
}
