package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pnf-chart/internal/feed"
	"pnf-chart/internal/logging"
	"pnf-chart/internal/models"
	"pnf-chart/internal/store"
	"pnf-chart/pkg/utils"
)

// addDataCommands adds candle store commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
	rootCmd.AddCommand(newSymbolsCmd(app))
	rootCmd.AddCommand(newDeleteCmd(app))
}

// feedOptions returns the CSV parsing options from the [data] config.
func (app *App) feedOptions() (feed.Options, error) {
	loc, err := app.Config.Location()
	if err != nil {
		return feed.Options{}, err
	}
	return feed.Options{Layout: app.Config.Data.CSVTimeLayout, Location: loc}, nil
}

// storeRetry retries writes that fail on a busy database.
func storeRetry() utils.RetryConfig {
	cfg := utils.DefaultRetryConfig()
	cfg.Retryable = store.IsBusy
	return cfg
}

// symbolFromPath derives a symbol from a CSV file name: data/eurusd_d1.csv -> EURUSD_D1.
func symbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Import candles from a CSV file",
		Long: `Import OHLC candles from a CSV file into the local candle store.

The file needs a header row with timestamp, date, open, high, low and close
columns; volume is optional. Existing candles with the same timestamp are
replaced.`,
		Example: `  pnf import EURUSD_D1.csv --symbol EURUSD --timeframe 1d
  pnf import aapl.csv --replace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			defer app.Close()

			path := args[0]
			symbol, _ := cmd.Flags().GetString("symbol")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			replace, _ := cmd.Flags().GetBool("replace")
			if symbol == "" {
				symbol = symbolFromPath(path)
			}
			if timeframe == "" {
				timeframe = app.Config.Data.DefaultTimeframe
			}
			symbol = strings.ToUpper(symbol)

			opts, err := app.feedOptions()
			if err != nil {
				return err
			}
			candles, err := feed.LoadFile(path, symbol, opts)
			if err != nil {
				logging.LogImport(app.Logger, symbol, timeframe, path, 0, err)
				output.Error("Failed to read %s: %v", path, err)
				return err
			}

			dataStore, err := app.OpenStore()
			if err != nil {
				return err
			}

			var deleted int64
			if replace {
				deleted, err = utils.RetryWithResult(ctx, storeRetry(), func() (int64, error) {
					return dataStore.DeleteCandles(ctx, symbol, timeframe)
				})
				if err != nil {
					return err
				}
			}

			err = utils.Retry(ctx, storeRetry(), func() error {
				return dataStore.SaveCandles(ctx, symbol, timeframe, candles)
			})
			logging.LogImport(app.Logger, symbol, timeframe, path, len(candles), err)
			if err != nil {
				output.Error("Failed to store candles: %v", err)
				return err
			}
			if err := dataStore.SetLastSync(store.ImportSyncKey(symbol, timeframe), time.Now()); err != nil {
				app.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to record import time")
			}

			series := models.Series{Symbol: symbol, Timeframe: timeframe, Candles: candles}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":    symbol,
					"timeframe": timeframe,
					"candles":   series.Len(),
					"replaced":  deleted,
					"first":     series.First(),
					"last":      series.Last(),
				})
			}
			output.Success("✓ Imported %s %s candles for %s %s",
				utils.FormatCount(int64(series.Len())), timeframe, symbol, output.DimText(
					fmt.Sprintf("(%s to %s)", app.formatTime(series.First()), app.formatTime(series.Last()))))
			if replace {
				output.Dim("  Replaced %d existing candles", deleted)
			}
			return nil
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "symbol to store the candles under (default: file name)")
	cmd.Flags().StringP("timeframe", "t", "", "timeframe label (default: data.default_timeframe)")
	cmd.Flags().Bool("replace", false, "delete the stored series before importing")

	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <symbol>",
		Short: "Export stored candles to CSV",
		Example: `  pnf export EURUSD --timeframe 1d -o eurusd.csv
  pnf export EURUSD --from 2024-01-01 --to 2024-06-30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer app.Close()

			opts, err := app.feedOptions()
			if err != nil {
				return err
			}
			req, err := app.seriesRequest(cmd, strings.ToUpper(args[0]), opts)
			if err != nil {
				return err
			}
			dataStore, err := app.OpenStore()
			if err != nil {
				return err
			}
			candles, err := dataStore.GetCandles(ctx, req.Symbol, req.Timeframe, req.From, req.To)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outFile, _ := cmd.Flags().GetString("output"); outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("create %s: %w", outFile, err)
				}
				defer f.Close()
				w = f
			}
			return feed.Write(w, candles, opts)
		},
	}

	addRangeFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	return cmd
}

func newSymbolsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List stored symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			defer app.Close()

			dataStore, err := app.OpenStore()
			if err != nil {
				return err
			}
			symbols, err := dataStore.ListSymbols(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if symbols == nil {
					symbols = []store.SymbolInfo{}
				}
				return output.JSON(symbols)
			}
			if len(symbols) == 0 {
				output.Warning("No candles stored. Run 'pnf import <csv>' first.")
				return nil
			}

			table := NewTable(output, "SYMBOL", "TIMEFRAME", "CANDLES", "LATEST", "IMPORTED")
			for _, s := range symbols {
				latest, err := dataStore.GetCandlesFreshness(ctx, s.Symbol, s.Timeframe)
				if err != nil {
					return err
				}
				table.AddRow(
					s.Symbol,
					s.Timeframe,
					utils.FormatCount(int64(s.Candles)),
					app.formatTime(latest),
					app.formatTime(dataStore.GetLastSync(store.ImportSyncKey(s.Symbol, s.Timeframe))),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <symbol>",
		Short: "Delete a stored series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			defer app.Close()

			symbol := strings.ToUpper(args[0])
			timeframe, _ := cmd.Flags().GetString("timeframe")
			if timeframe == "" {
				timeframe = app.Config.Data.DefaultTimeframe
			}

			dataStore, err := app.OpenStore()
			if err != nil {
				return err
			}
			n, err := utils.RetryWithResult(ctx, storeRetry(), func() (int64, error) {
				return dataStore.DeleteCandles(ctx, symbol, timeframe)
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"symbol": symbol, "timeframe": timeframe, "deleted": n})
			}
			if n == 0 {
				output.Warning("No %s candles stored for %s", timeframe, symbol)
				return nil
			}
			output.Success("✓ Deleted %d %s candles for %s", n, timeframe, symbol)
			return nil
		},
	}

	cmd.Flags().StringP("timeframe", "t", "", "timeframe label (default: data.default_timeframe)")

	return cmd
}

// addRangeFlags registers the series selection flags.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("timeframe", "t", "", "timeframe label (default: data.default_timeframe)")
	cmd.Flags().String("from", "", "first candle time (inclusive)")
	cmd.Flags().String("to", "", "last candle time (inclusive)")
}

// seriesRequest reads the series selection flags.
func (app *App) seriesRequest(cmd *cobra.Command, symbol string, opts feed.Options) (seriesSpec, error) {
	spec := seriesSpec{Symbol: symbol}
	spec.Timeframe, _ = cmd.Flags().GetString("timeframe")
	if spec.Timeframe == "" {
		spec.Timeframe = app.Config.Data.DefaultTimeframe
	}

	for _, f := range []struct {
		name string
		dst  *time.Time
	}{{"from", &spec.From}, {"to", &spec.To}} {
		s, _ := cmd.Flags().GetString(f.name)
		if s == "" {
			continue
		}
		t, err := feed.ParseTime(s, opts)
		if err != nil {
			return seriesSpec{}, fmt.Errorf("--%s: %w", f.name, err)
		}
		*f.dst = t
	}
	if !spec.To.IsZero() && spec.To.Before(spec.From) {
		return seriesSpec{}, fmt.Errorf("--to %s is before --from %s", app.formatTime(spec.To), app.formatTime(spec.From))
	}
	return spec, nil
}

// seriesSpec selects a stored series and optional time range.
type seriesSpec struct {
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
}

func (s seriesSpec) contains(t time.Time) bool {
	if !s.From.IsZero() && t.Before(s.From) {
		return false
	}
	return s.To.IsZero() || !t.After(s.To)
}

func (app *App) formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	if loc, err := app.Config.Location(); err == nil {
		t = t.In(loc)
	}
	layout := app.Config.UI.DateFormat
	if layout == "" {
		layout = "2006-01-02 15:04"
	}
	return t.Format(layout)
}
