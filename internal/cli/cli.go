// Package cli orchestrates a fuefit run after configuration loading: it
// wires the event hooks, optionally drives the TUI, and invokes the engine.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/gfon/fuefit/internal/cli/hooks"
	"github.com/gfon/fuefit/internal/cli/ui"
	"github.com/gfon/fuefit/pkg/fit"
	"github.com/gfon/fuefit/pkg/fit/model"
)

// programSender adapts *tea.Program to the hooks.TUIProgram interface.
type programSender struct {
	program *tea.Program
}

func (s programSender) Send(msg any) { s.program.Send(msg) }

// Run executes the engine with the given validated options. When the TUI is
// enabled and stderr is a terminal, progress is rendered interactively;
// otherwise events go to the logger.
func Run(ctx context.Context, opts fit.Options, logger *slog.Logger) error {
	useTUI := opts.TuiEnabled && !opts.Verbose && term.IsTerminal(int(os.Stderr.Fd()))

	var program *tea.Program
	var tuiDone sync.WaitGroup
	var tuiErr error

	if useTUI {
		m := ui.NewModel(opts.AppVersion)
		program = tea.NewProgram(&m, tea.WithOutput(os.Stderr))
		tuiDone.Add(1)
		go func() {
			defer tuiDone.Done()
			_, tuiErr = program.Run()
		}()
		opts.EventHooks = hooks.New(logger, programSender{program}, opts.Verbose)
	} else {
		opts.EventHooks = hooks.New(logger, nil, opts.Verbose)
	}

	report, runErr := fit.FitMap(ctx, opts)

	if program != nil {
		// Leave the summary on screen briefly, then release the terminal.
		program.Quit()
		tuiDone.Wait()
		if tuiErr != nil {
			logger.Warn("TUI terminated with an error", slog.Any("error", tuiErr))
		}
	}

	if runErr != nil {
		logger.Error("Run failed", slog.Any("error", runErr))
		return runErr
	}

	logger.Info("Fit complete",
		slog.Int("files", report.Summary.FileCount),
		slog.Int("points", report.Summary.PointCount),
		slog.Int("coefficients", len(report.Summary.Coefficients)),
		slog.String("output", report.Summary.OutputPath),
		slog.Float64("seconds", report.Summary.DurationSeconds),
	)
	return nil
}

// Query resolves a JSON Pointer against the default model document and
// writes the addressed subtree as indented JSON. An empty path or "/"
// prints the whole document.
func Query(path string, w io.Writer) error {
	doc := model.Base()

	var value any = map[string]any(doc)
	if path != "" && path != "/" {
		ptr, err := model.ParsePointer(path)
		if err != nil {
			return fmt.Errorf("%w: %w", fit.ErrConfiguration, err)
		}
		value, err = doc.Resolve(ptr)
		if err != nil {
			return fmt.Errorf("%w: %w", fit.ErrConfiguration, err)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
