package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Point & Figure Chart Configuration

[chart]
# Price used for boxes: "close" or "high_low"
construction = "close"
# Box sizing: "auto", "fixed", "points" or "percentage"
box_size_mode = "auto"
# Box size for fixed/points mode, or percent of price for percentage mode.
# Ignored in auto mode.
box_size = 0.0
# Boxes of adverse movement needed to start a new column
reversal = 3

[data]
# Candle database. Empty means candles.db in this directory.
database = ""
# Time zone for timestamps without an offset
timezone = "UTC"
# Go time layout of the CSV timestamp column
csv_time_layout = "2006.01.02 15:04:05"
# Timeframe recorded for imported candles
default_timeframe = "1d"

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to the terminal (stderr)
console = true
# Log to a rotating file
file = false
# Empty means logs/pnf.log in this directory
file_path = ""
# Rotation: megabytes per file, files kept, days kept
max_size = 50
max_backups = 5
max_age = 30

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "2006-01-02"
`

// createTemplateConfig writes the commented default config and returns its path.
func createTemplateConfig(configDir, name string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}

	return path, nil
}
