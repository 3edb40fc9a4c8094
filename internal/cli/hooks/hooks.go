// Package hooks bridges the fit engine's event callbacks to the CLI's
// output channels: the structured logger in verbose mode, the TUI program
// when one is running, or nothing beyond errors otherwise.
package hooks

import (
	"log/slog"
	"time"

	"github.com/gfon/fuefit/pkg/fit"
)

// TUIProgram abstracts the running Bubble Tea program so the hooks do not
// depend on the ui package directly.
type TUIProgram interface {
	Send(msg any)
}

// FileDiscoveredMsg announces an input file before it is read.
type FileDiscoveredMsg struct {
	Path string
}

// FileStatusUpdateMsg reports a status transition for one input file.
type FileStatusUpdateMsg struct {
	Path     string
	Status   fit.Status
	Message  string
	Duration time.Duration
}

// RunCompleteMsg carries the final report once the run has finished.
type RunCompleteMsg struct {
	Report fit.Report
}

// CLIHooks implements fit.Hooks for the command-line frontend.
type CLIHooks struct {
	logger  *slog.Logger
	tui     TUIProgram
	verbose bool
}

// New creates hooks wired to the given logger. tui may be nil when the TUI
// is disabled.
func New(logger *slog.Logger, tui TUIProgram, verbose bool) *CLIHooks {
	return &CLIHooks{logger: logger, tui: tui, verbose: verbose}
}

// OnFileDiscovered implements fit.Hooks.
func (h *CLIHooks) OnFileDiscovered(path string) error {
	if h.tui != nil {
		h.tui.Send(FileDiscoveredMsg{Path: path})
	} else if h.verbose {
		h.logger.Debug("Discovered input file", slog.String("path", path))
	}
	return nil
}

// OnFileStatusUpdate implements fit.Hooks.
func (h *CLIHooks) OnFileStatusUpdate(path string, status fit.Status, message string, duration time.Duration) error {
	if h.tui != nil {
		h.tui.Send(FileStatusUpdateMsg{Path: path, Status: status, Message: message, Duration: duration})
		return nil
	}
	switch status {
	case fit.StatusFailed:
		h.logger.Error("Input file failed",
			slog.String("path", path),
			slog.String("reason", message),
		)
	default:
		if h.verbose {
			h.logger.Debug("File status",
				slog.String("path", path),
				slog.String("status", string(status)),
				slog.Duration("duration", duration),
			)
		}
	}
	return nil
}

// OnRunComplete implements fit.Hooks.
func (h *CLIHooks) OnRunComplete(report fit.Report) error {
	if h.tui != nil {
		h.tui.Send(RunCompleteMsg{Report: report})
	} else if h.verbose {
		h.logger.Debug("Run complete",
			slog.Int("files", report.Summary.FileCount),
			slog.Int("points", report.Summary.PointCount),
			slog.Float64("duration", report.Summary.DurationSeconds),
		)
	}
	return nil
}
