package feed

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "pnf-chart/internal/errors"
)

const sample = `timestamp,date,open,high,low,close
2024.01.03 00:00:00,2024-01-03,1.1010,1.1050,1.0990,1.1040
2024.01.02 00:00:00,2024-01-02,1.1000,1.1020,1.0980,1.1010
2024.01.04 00:00:00,2024-01-04,1.1040,1.1100,1.1030,1.1090
`

func TestLoad_SortsAndParses(t *testing.T) {
	candles, err := Load(strings.NewReader(sample), "EURUSD", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("len = %d, want 3", len(candles))
	}
	first := candles[0]
	if !first.Timestamp.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first timestamp = %v", first.Timestamp)
	}
	if first.Open != 1.1 || first.High != 1.102 || first.Low != 1.098 || first.Close != 1.101 {
		t.Errorf("first candle = %+v", first)
	}
	if candles[2].Close != 1.109 {
		t.Errorf("last close = %v", candles[2].Close)
	}
}

func TestLoad_HeaderCaseAndVolume(t *testing.T) {
	in := "\xef\xbb\xbfTimestamp, Date ,Open,High,Low,Close,Volume\n" +
		"2024-02-01T10:00:00Z,,10,11,9,10.5,1200\n"
	candles, err := Load(strings.NewReader(in), "ABC", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(candles) != 1 || candles[0].Volume != 1200 || candles[0].Close != 10.5 {
		t.Errorf("candles = %+v", candles)
	}
}

func TestLoad_Location(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	candles, err := Load(strings.NewReader(sample), "EURUSD", Options{Layout: DefaultTimeLayout, Location: loc})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)
	if !candles[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", candles[0].Timestamp.UTC(), want)
	}
}

func TestLoad_FallsBackToDateColumn(t *testing.T) {
	in := "timestamp,date,open,high,low,close\n,2024-03-05,1,2,1,2\n"
	candles, err := Load(strings.NewReader(in), "X", DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if candles[0].Timestamp.Day() != 5 {
		t.Errorf("timestamp = %v", candles[0].Timestamp)
	}
}

func TestLoad_BadRowNamesRow(t *testing.T) {
	in := "timestamp,date,open,high,low,close\n" +
		"2024.01.02 00:00:00,,1,2,1,2\n" +
		"2024.01.03 00:00:00,,1,abc,1,2\n"
	_, err := Load(strings.NewReader(in), "X", DefaultOptions())
	var dataErr *apperrors.DataError
	if !apperrors.As(err, &dataErr) {
		t.Fatalf("error = %v, want DataError", err)
	}
	if dataErr.Message != "row 3" {
		t.Errorf("Message = %q, want row 3", dataErr.Message)
	}
	if !apperrors.Is(err, apperrors.ErrInputValidation) {
		t.Errorf("error %v does not wrap ErrInputValidation", err)
	}
}

func TestLoad_BadTimestamp(t *testing.T) {
	in := "timestamp,date,open,high,low,close\nyesterday,,1,2,1,2\n"
	if _, err := Load(strings.NewReader(in), "X", DefaultOptions()); !apperrors.Is(err, apperrors.ErrInputValidation) {
		t.Errorf("error = %v, want ErrInputValidation", err)
	}
}

func TestLoad_Empty(t *testing.T) {
	for _, in := range []string{"", "timestamp,date,open,high,low,close\n"} {
		if _, err := Load(strings.NewReader(in), "X", DefaultOptions()); !apperrors.Is(err, apperrors.ErrDataNotFound) {
			t.Errorf("Load(%q) error = %v, want ErrDataNotFound", in, err)
		}
	}
}

func TestWriteThenLoadFile(t *testing.T) {
	candles, err := Load(strings.NewReader(sample), "EURUSD", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, candles, DefaultOptions()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "timestamp,date,open,high,low,close,volume\n2024.01.02 00:00:00,2024-01-02,1.1,") {
		t.Errorf("Write output = %q", buf.String())
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	again, err := LoadFile(path, "EURUSD", DefaultOptions())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(again) != len(candles) {
		t.Fatalf("len = %d, want %d", len(again), len(candles))
	}
	for i := range candles {
		a, b := candles[i], again[i]
		if !a.Timestamp.Equal(b.Timestamp) || a.Open != b.Open || a.High != b.High ||
			a.Low != b.Low || a.Close != b.Close || a.Volume != b.Volume {
			t.Errorf("candle %d = %+v, want %+v", i, again[i], candles[i])
		}
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"), "X", DefaultOptions()); err == nil {
		t.Error("LoadFile of a missing file succeeded")
	}
}
