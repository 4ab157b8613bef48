package game

import (
	"log/slog"

	"github.com/pthm-cable/springsoup/telemetry"
)

// Options holds runtime wiring that does not belong in the YAML config.
type Options struct {
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
	Output  *telemetry.OutputManager

	// LogStats logs each telemetry window to the logger.
	LogStats bool

	// Viewport size in pixels; zero falls back to the configured screen.
	ViewportW, ViewportH float64

	// SceneDir, if set, receives a saved scene for every bookmark.
	SceneDir string

	// StatsCallback, if set, receives each flushed telemetry window.
	StatsCallback func(telemetry.WindowStats)
}
