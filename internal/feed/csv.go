// Package feed loads candle series from CSV exports.
package feed

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "pnf-chart/internal/errors"
	"pnf-chart/internal/models"
)

// DefaultTimeLayout is the timestamp layout of terminal history exports.
const DefaultTimeLayout = "2006.01.02 15:04:05"

// fallbackLayouts are tried after the configured layout.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006.01.02",
}

// Options controls how timestamps are parsed.
type Options struct {
	Layout   string
	Location *time.Location
}

// DefaultOptions parses the export layout in UTC.
func DefaultOptions() Options {
	return Options{Layout: DefaultTimeLayout, Location: time.UTC}
}

// csvRow mirrors one line of `timestamp,date,open,high,low,close[,volume]`.
// Numbers are kept as text so a bad cell can be reported with its row.
type csvRow struct {
	Timestamp string `csv:"timestamp"`
	Date      string `csv:"date"`
	Open      string `csv:"open"`
	High      string `csv:"high"`
	Low       string `csv:"low"`
	Close     string `csv:"close"`
	Volume    string `csv:"volume"`
}

// LoadFile reads a CSV file of candles.
func LoadFile(path, symbol string, opts Options) ([]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDataError("csv", symbol, "failed to open "+path, err)
	}
	defer f.Close()
	return Load(f, symbol, opts)
}

// Load parses candles from r and returns them sorted by timestamp. The first
// line must be a header; header names are matched case-insensitively.
func Load(r io.Reader, symbol string, opts Options) ([]models.Candle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewDataError("csv", symbol, "failed to read input", err)
	}
	data = normalizeHeader(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.NewDataError("csv", symbol, "empty file", apperrors.ErrDataNotFound)
	}
	if !hasDataRows(data) {
		return nil, apperrors.NewDataError("csv", symbol, "no rows after header", apperrors.ErrDataNotFound)
	}

	var rows []*csvRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, apperrors.NewDataError("csv", symbol, "malformed csv", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewDataError("csv", symbol, "no rows after header", apperrors.ErrDataNotFound)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		c, err := row.candle(opts)
		if err != nil {
			// Row 1 is the header.
			return nil, apperrors.NewDataError("csv", symbol, fmt.Sprintf("row %d", i+2), err)
		}
		candles = append(candles, c)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

func normalizeHeader(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		end = len(data)
	}
	header := strings.ToLower(string(data[:end]))
	fields := strings.Split(header, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	out := []byte(strings.Join(fields, ","))
	if end < len(data) {
		out = append(out, '\n')
		out = append(out, data[end+1:]...)
	}
	return out
}

func hasDataRows(data []byte) bool {
	end := bytes.IndexByte(data, '\n')
	return end >= 0 && len(bytes.TrimSpace(data[end+1:])) > 0
}

func (r *csvRow) candle(opts Options) (models.Candle, error) {
	stamp := strings.TrimSpace(r.Timestamp)
	if stamp == "" {
		stamp = strings.TrimSpace(r.Date)
	}
	ts, err := ParseTime(stamp, opts)
	if err != nil {
		return models.Candle{}, err
	}

	c := models.Candle{Timestamp: ts}
	for _, f := range []struct {
		name string
		text string
		dst  *float64
	}{
		{"open", r.Open, &c.Open},
		{"high", r.High, &c.High},
		{"low", r.Low, &c.Low},
		{"close", r.Close, &c.Close},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.text), 64)
		if err != nil {
			return models.Candle{}, apperrors.NewValidationError(f.name, f.text, "not a number")
		}
		*f.dst = v
	}

	if v := strings.TrimSpace(r.Volume); v != "" {
		vol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.Candle{}, apperrors.NewValidationError("volume", r.Volume, "not a number")
		}
		c.Volume = int64(vol)
	}
	return c, nil
}

// ParseTime parses s with the configured layout, falling back to RFC3339 and
// ISO date forms. Layouts without a zone are read in opts.Location.
func ParseTime(s string, opts Options) (time.Time, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	layouts := fallbackLayouts
	if opts.Layout != "" {
		layouts = append([]string{opts.Layout}, fallbackLayouts...)
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("timestamp", s, "unrecognised time format")
}

// csvOutRow is the export form of a candle.
type csvOutRow struct {
	Timestamp string `csv:"timestamp"`
	Date      string `csv:"date"`
	Open      string `csv:"open"`
	High      string `csv:"high"`
	Low       string `csv:"low"`
	Close     string `csv:"close"`
	Volume    int64  `csv:"volume"`
}

// Write exports candles in the same layout Load reads.
func Write(w io.Writer, candles []models.Candle, opts Options) error {
	layout := opts.Layout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	rows := make([]*csvOutRow, len(candles))
	for i, c := range candles {
		ts := c.Timestamp.In(loc)
		rows[i] = &csvOutRow{
			Timestamp: ts.Format(layout),
			Date:      ts.Format("2006-01-02"),
			Open:      formatPrice(c.Open),
			High:      formatPrice(c.High),
			Low:       formatPrice(c.Low),
			Close:     formatPrice(c.Close),
			Volume:    c.Volume,
		}
	}
	return gocsv.Marshal(rows, w)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
