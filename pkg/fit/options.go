package fit

import (
	"context"
	"log/slog"
	"time"
)

// Hooks defines callbacks for status updates during a FitMap run. The run is
// strictly sequential, so implementations are called from a single goroutine.
type Hooks interface {
	OnFileDiscovered(path string) error
	OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error
	OnRunComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of the Hooks interface.
type NoOpHooks struct{}

// OnFileDiscovered implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileDiscovered(path string) error { return nil }

// OnFileStatusUpdate implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error {
	return nil
}

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(report Report) error { return nil }

// Fitter produces the fuel-consumption map coefficients from the merged,
// denormalized data points. The default is an ordinary least-squares
// polynomial fit; tests and callers may inject their own.
type Fitter interface {
	Fit(ctx context.Context, points []Point) ([]float64, error)
}

// Options holds all configuration for a FitMap run.
type Options struct {
	// --- Input ---
	InputFiles  []string `mapstructure:"ifile"`    // Required: input table paths; "-" reads stdin
	ColumnSpecs []string `mapstructure:"icolumns"` // Per-file column specs (header-row index or NAME[(UNITS)] list)
	Renames     []string `mapstructure:"irenames"` // Per-file rename lists (X = keep)
	Formats     []string `mapstructure:"iformat"`  // Per-file formats (AUTO, CSV, TXT, XLS, JSON)
	ReadOpts    []string `mapstructure:"iopts"`    // Per-file reader options, space-separated KEY=VALUE pairs per occurrence

	// --- Model ---
	ModelFile string   `mapstructure:"model"`     // Optional model file merged onto the defaults
	Overrides []string `mapstructure:"overrides"` // Ordered PATH=VALUE overrides, relative paths land under /engine/

	// --- Output ---
	OutputFile   string   `mapstructure:"ofile"`   // Output path; empty or "-" writes stdout
	OutputFormat string   `mapstructure:"oformat"` // AUTO, CSV, TXT, XLS or JSON
	WriteOpts    []string `mapstructure:"oopts"`   // Writer options, KEY=VALUE pairs
	Append       bool     `mapstructure:"append"`  // Append to the output file instead of truncating

	// --- Behavior & Control ---
	Verbose        bool   `mapstructure:"verbose"`    // Enable debug logging
	Debug          bool   `mapstructure:"debug"`      // Print full error chains in the CLI
	TuiEnabled     bool   `mapstructure:"tuiEnabled"` // Hint for the CLI to use the TUI (ignored if Verbose)
	ProfileName    string `mapstructure:"-"`          // Name of the profile used (for reporting)
	ConfigFilePath string `mapstructure:"-"`          // Path to the loaded config file (for reporting)
	AppVersion     string `mapstructure:"-"`          // Application version, populated by the caller

	// --- Injected Dependencies ---
	EventHooks Hooks        `mapstructure:"-"` // Optional: status callbacks (defaults to NoOpHooks)
	Logger     slog.Handler `mapstructure:"-"` // Required: logging backend
	Fitter     Fitter       `mapstructure:"-"` // Optional: fit implementation (defaults to PolynomialFitter)
}
