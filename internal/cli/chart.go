package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pnf-chart/internal/builder"
	"pnf-chart/internal/feed"
	"pnf-chart/internal/metrics"
	"pnf-chart/internal/models"
	"pnf-chart/internal/pnf"
	"pnf-chart/pkg/utils"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// chartReport is the JSON/YAML form of a built chart.
type chartReport struct {
	Summary builder.Summary `json:"summary" yaml:"summary"`
	Chart   pnf.Snapshot    `json:"chart" yaml:"chart"`
	Grid    pnf.Grid        `json:"grid" yaml:"grid"`
}

// addChartCommands adds chart construction commands.
func addChartCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newChartCmd(app))
	rootCmd.AddCommand(newTrendLinesCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
}

// addChartFlags registers the construction overrides shared by chart commands.
func addChartFlags(cmd *cobra.Command) {
	cmd.Flags().String("construction", "", "close or high_low (default: chart.construction)")
	cmd.Flags().String("mode", "", "box size mode: auto, fixed, points or percentage (default: chart.box_size_mode)")
	cmd.Flags().Float64("box-size", 0, "box size, or percent of price in percentage mode (default: chart.box_size)")
	cmd.Flags().Int("reversal", 0, "boxes needed to reverse (default: chart.reversal)")
}

// chartConfig merges flag overrides into the configured chart settings.
func (app *App) chartConfig(cmd *cobra.Command) (pnf.Config, error) {
	chart := app.Config.Chart
	if cmd.Flags().Changed("construction") {
		chart.Construction, _ = cmd.Flags().GetString("construction")
	}
	if cmd.Flags().Changed("mode") {
		chart.BoxSizeMode, _ = cmd.Flags().GetString("mode")
	}
	if cmd.Flags().Changed("box-size") {
		chart.BoxSize, _ = cmd.Flags().GetFloat64("box-size")
		// A size on the command line implies a sized mode.
		if !cmd.Flags().Changed("mode") && strings.EqualFold(chart.BoxSizeMode, string(pnf.BoxSizeAuto)) {
			chart.BoxSizeMode = string(pnf.BoxSizeFixed)
		}
	}
	if cmd.Flags().Changed("reversal") {
		chart.Reversal, _ = cmd.Flags().GetInt("reversal")
	}

	cfg := *app.Config
	cfg.Chart = chart
	return cfg.ChartConfig()
}

// loadSeries reads candles from the CSV named in args, or from the store when
// no file is given.
func (app *App) loadSeries(ctx context.Context, cmd *cobra.Command, args []string) (models.Series, error) {
	opts, err := app.feedOptions()
	if err != nil {
		return models.Series{}, err
	}
	symbol, _ := cmd.Flags().GetString("symbol")
	if symbol == "" && len(args) > 0 {
		symbol = symbolFromPath(args[0])
	}
	if symbol == "" {
		return models.Series{}, fmt.Errorf("a CSV file or --symbol is required")
	}
	spec, err := app.seriesRequest(cmd, strings.ToUpper(symbol), opts)
	if err != nil {
		return models.Series{}, err
	}

	series := models.Series{Symbol: spec.Symbol, Timeframe: spec.Timeframe}
	if len(args) > 0 {
		candles, err := feed.LoadFile(args[0], spec.Symbol, opts)
		if err != nil {
			return models.Series{}, err
		}
		for _, c := range candles {
			if spec.contains(c.Timestamp) {
				series.Candles = append(series.Candles, c)
			}
		}
		return series, nil
	}

	dataStore, err := app.OpenStore()
	if err != nil {
		return models.Series{}, err
	}
	series.Candles, err = dataStore.GetCandles(ctx, spec.Symbol, spec.Timeframe, spec.From, spec.To)
	return series, err
}

// buildChart loads the selected series and builds its chart.
func (app *App) buildChart(cmd *cobra.Command, args []string) (*pnf.Chart, builder.Summary, error) {
	ctx := cmd.Context()
	cfg, err := app.chartConfig(cmd)
	if err != nil {
		return nil, builder.Summary{}, err
	}
	series, err := app.loadSeries(ctx, cmd, args)
	if err != nil {
		return nil, builder.Summary{}, err
	}
	b, err := builder.New(cfg, app.Metrics, app.Logger)
	if err != nil {
		return nil, builder.Summary{}, err
	}
	return b.BuildSeries(ctx, series)
}

// outputFormat resolves --format, letting the global --json win.
func outputFormat(cmd *cobra.Command) (string, error) {
	if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
		return FormatJSON, nil
	}
	format, _ := cmd.Flags().GetString("format")
	switch strings.ToLower(format) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return strings.ToLower(format), nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func newChartCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart [csv]",
		Short: "Build and print a Point-and-Figure chart",
		Long: `Build a Point-and-Figure chart from a CSV file or from stored candles.

Rising columns print as X and falling columns as O. The first box of each new
month shows the month instead (1-9, then A, B, C for October to December).
The summary lists the column counts, trend lines and the resulting bias.`,
		Example: `  pnf chart EURUSD_D1.csv
  pnf chart --symbol EURUSD --timeframe 1d --from 2024-01-01
  pnf chart data.csv --mode fixed --box-size 0.0010 --reversal 3
  pnf chart data.csv --construction high_low --format yaml
  pnf chart data.csv --metrics-addr :9090`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			defer app.Close()

			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			chart, summary, err := app.buildChart(cmd, args)
			if err != nil {
				output.Error("Failed to build chart: %v", err)
				return err
			}

			if err := printChart(output, format, chart, summary); err != nil {
				return err
			}

			if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
				return app.serveMetrics(cmd.Context(), output, addr)
			}
			return nil
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "symbol (default: CSV file name)")
	addRangeFlags(cmd)
	addChartFlags(cmd)
	cmd.Flags().StringP("format", "f", FormatText, "output format: text, json or yaml")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address after building")

	return cmd
}

func printChart(output *Output, format string, chart *pnf.Chart, summary builder.Summary) error {
	report := chartReport{Summary: summary, Chart: chart.Snapshot(), Grid: pnf.BuildGrid(chart)}
	switch format {
	case FormatJSON:
		return output.JSON(report)
	case FormatYAML:
		return output.YAML(report)
	}

	decimals := utils.PriceDecimals(summary.BoxSize)
	renderSummary(output, summary, chart.Config(), decimals)
	output.Println()
	renderGrid(output, report.Grid, decimals)
	output.Println()
	renderTrendLines(output, chart.TrendLines().Lines(), decimals)
	return nil
}

// serveMetrics exposes the build metrics until ctx is cancelled or the
// process is interrupted.
func (app *App) serveMetrics(ctx context.Context, output *Output, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := metrics.NewServer(addr, app.Registry, app.Logger)
	srv.Start()
	output.Info("Serving metrics on %s/metrics (Ctrl+C to stop)", addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func newTrendLinesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trendlines [csv]",
		Aliases: []string{"lines"},
		Short:   "Show the trend line history of a chart",
		Long: `Build a chart and list every trend line drawn on it, oldest first.

Bullish support lines start one box below a significant low and rise one box
per column; bearish resistance lines start one box above a significant high
and fall one box per column. At most one line is active at a time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			defer app.Close()

			chart, summary, err := app.buildChart(cmd, args)
			if err != nil {
				output.Error("Failed to build chart: %v", err)
				return err
			}

			lines := chart.TrendLines().Lines()
			if output.IsJSON() {
				views := make([]pnf.TrendLineView, len(lines))
				for i, l := range lines {
					views[i] = pnf.NewTrendLineView(l)
				}
				return output.JSON(map[string]interface{}{
					"symbol":      summary.Symbol,
					"bias":        summary.Bias,
					"trend_lines": views,
				})
			}

			decimals := utils.PriceDecimals(summary.BoxSize)
			output.Bold("%s trend lines (%d columns)", summary.Symbol, summary.Columns)
			renderTrendLines(output, lines, decimals)
			if line, ok := chart.TrendLines().Active(); ok && chart.ColumnCount() > 0 {
				last := chart.ColumnCount() - 1
				output.Println()
				output.Printf("Active %s projects to %s at column %d\n",
					line.Type(), utils.FormatPrice(line.PriceAt(last), decimals), last)
			}
			output.Printf("Bias: %s\n", output.bias(summary.Bias))
			return nil
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "symbol (default: CSV file name)")
	addRangeFlags(cmd)
	addChartFlags(cmd)

	return cmd
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Build charts for every stored series",
		Long: `Build a chart for each stored symbol and timeframe and report its
current column, trend line bias and last close.`,
		Example: `  pnf scan
  pnf scan --timeframe 1d --bias bullish`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			defer app.Close()

			cfg, err := app.chartConfig(cmd)
			if err != nil {
				return err
			}
			b, err := builder.New(cfg, app.Metrics, app.Logger)
			if err != nil {
				return err
			}
			dataStore, err := app.OpenStore()
			if err != nil {
				return err
			}
			symbols, err := dataStore.ListSymbols(ctx)
			if err != nil {
				return err
			}

			timeframe, _ := cmd.Flags().GetString("timeframe")
			biasFilter, _ := cmd.Flags().GetString("bias")
			concurrency, _ := cmd.Flags().GetInt("concurrency")

			var requests []builder.Request
			for _, s := range symbols {
				if timeframe == "" || s.Timeframe == timeframe {
					requests = append(requests, builder.Request{Symbol: s.Symbol, Timeframe: s.Timeframe})
				}
			}

			var matched []builder.Result
			var failed int
			for _, r := range b.Scan(ctx, dataStore, requests, concurrency) {
				if r.Err != nil {
					failed++
					app.Logger.Warn().Err(r.Err).Str("symbol", r.Request.Symbol).Msg("Scan failed")
					continue
				}
				if biasFilter != "" && !strings.EqualFold(string(r.Summary.Bias), biasFilter) {
					continue
				}
				matched = append(matched, r)
			}

			if output.IsJSON() {
				summaries := make([]builder.Summary, len(matched))
				for i, r := range matched {
					summaries[i] = r.Summary
				}
				return output.JSON(summaries)
			}
			if len(matched) == 0 {
				output.Warning("No charts matched")
				return nil
			}

			table := NewTable(output, "SYMBOL", "TF", "COLUMNS", "LAST COLUMN", "BIAS", "LAST CLOSE", "BOX")
			for _, r := range matched {
				decimals := utils.PriceDecimals(r.Summary.BoxSize)
				table.AddRow(
					r.Summary.Symbol,
					r.Summary.Timeframe,
					strconv.Itoa(r.Summary.Columns),
					describeColumn(r.Chart.LastColumn(), decimals),
					output.bias(r.Summary.Bias),
					utils.FormatPrice(r.Summary.LastClose, decimals),
					utils.FormatPrice(r.Summary.BoxSize, decimals),
				)
			}
			table.Render()
			if failed > 0 {
				output.Warning("%d series failed to build (see log)", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringP("timeframe", "t", "", "only scan this timeframe")
	cmd.Flags().String("bias", "", "only show bullish, bearish or none")
	cmd.Flags().Int("concurrency", 4, "charts built in parallel")
	addChartFlags(cmd)

	return cmd
}

// describeColumn summarises a column as its type and price range, e.g. "X 100-105".
func describeColumn(col *pnf.Column, decimals int) string {
	if col == nil {
		return "-"
	}
	return fmt.Sprintf("%s %s-%s", col.Type(),
		utils.FormatPrice(col.Lowest(), decimals), utils.FormatPrice(col.Highest(), decimals))
}
