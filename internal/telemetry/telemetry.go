// Package telemetry wires structured logging and the module's uptime
// clock, both ambient concerns the mixer engine and command adapter share
// but neither owns.
package telemetry

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// NewLogger builds the module's logger. Debug-level output (per-tick
// mixer diagnostics) is gated behind verbose, since the mixer runs at
// sink rate and cannot afford to log on every tick by default.
func NewLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "soundmod",
	})
	return logger
}

// Uptime tracks seconds since the module started, for SOUND_STATUS frames.
type Uptime struct {
	start time.Time
}

// NewUptime starts the clock now.
func NewUptime() Uptime {
	return Uptime{start: time.Now()}
}

// Seconds returns the elapsed time since NewUptime, in whole seconds.
func (u Uptime) Seconds() uint32 {
	return uint32(time.Since(u.start).Seconds())
}
