// Package cli provides the command-line interface for building and inspecting
// Point-and-Figure charts.
package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pnf-chart/internal/config"
	"pnf-chart/internal/logging"
	"pnf-chart/internal/metrics"
	"pnf-chart/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.DataStore
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	registry := prometheus.NewRegistry()
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Metrics:  metrics.NewMetrics(registry),
	}

	rootCmd := &cobra.Command{
		Use:   "pnf",
		Short: "Point-and-Figure chart builder",
		Long: `pnf builds Point-and-Figure charts from OHLC candle data.

Candles are read from CSV files or from the local candle store, charted with
a configurable box size and reversal, and printed with their trend lines.

Use 'pnf help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir, _ := cmd.Flags().GetString("config"); dir != "" && dir != app.Config.Dir {
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
			}
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/pnf-chart)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addChartCommands(rootCmd, app)

	return rootCmd
}

// OpenStore opens the candle store on first use.
func (app *App) OpenStore() (store.DataStore, error) {
	if app.Store != nil {
		return app.Store, nil
	}
	s, err := store.NewSQLiteStore(app.Config.Data.Database)
	if err != nil {
		return nil, fmt.Errorf("open candle store %s: %w", app.Config.Data.Database, err)
	}
	app.Logger.Debug().Str("path", app.Config.Data.Database).Msg("SQLite store initialized")
	app.Store = s
	return s, nil
}

// Close releases the candle store if it was opened.
func (app *App) Close() error {
	if app.Store == nil {
		return nil
	}
	err := app.Store.Close()
	app.Store = nil
	return err
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("pnf v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.Config.Path()})
			}
			output.Println(app.Config.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Chart")
	output.Printf("  Construction:  %s\n", cfg.Chart.Construction)
	output.Printf("  Box size mode: %s\n", cfg.Chart.BoxSizeMode)
	output.Printf("  Box size:      %g\n", cfg.Chart.BoxSize)
	output.Printf("  Reversal:      %d\n", cfg.Chart.Reversal)
	output.Println()

	output.Bold("Data")
	output.Printf("  Database:      %s\n", cfg.Data.Database)
	output.Printf("  Timezone:      %s\n", cfg.Data.Timezone)
	output.Printf("  CSV layout:    %s\n", cfg.Data.CSVTimeLayout)
	output.Printf("  Timeframe:     %s\n", cfg.Data.DefaultTimeframe)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:         %s\n", cfg.Logging.Level)
	output.Printf("  File:          %v (%s)\n", cfg.Logging.File, cfg.Logging.FilePath)
}
