package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gfon/fuefit/internal/cli"
	"github.com/gfon/fuefit/internal/cli/config"
	"github.com/gfon/fuefit/pkg/fit"
)

// Exit codes. Cobra usage errors map to 2, configuration problems to 3 and
// model validation failures to 4.
const (
	exitOK            = 0
	exitFailure       = 1
	exitUsage         = 2
	exitConfiguration = 3
	exitValidation    = 4
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errUsage marks command-line parse failures so Execute can map them to
// their own exit code.
var errUsage = errors.New("usage error")

// newRootCmd builds the fuefit command. A fresh command per invocation keeps
// repeatable flags from accumulating state across runs.
func newRootCmd() *cobra.Command {
	var (
		cfgFile     string
		profileName string
		verbose     bool
		debug       bool
	)

	cmd := &cobra.Command{
		Use:   "fuefit -i <table> [-i <table> ...] [-o <model>]",
		Short: "Fits engine fuel-consumption maps from measured data tables.",
		Long: `fuefit reads tabular engine measurements (CSV, TXT or JSON), resolves
the columns against its quantity taxonomy, denormalizes them using the
engine model, and fits a polynomial fuel-consumption surface over
engine speed and power.

Columns are recognized by name (RPM, RPMnorm, Omega, CM, P, Pnorm, T,
PME, FC, FCnorm, PMF; X skips a column). Model values come from built-in
defaults, an optional model file (-m) and ordered -M overrides.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		// One positional is allowed so `--query PATH` works with a space:
		// pflag never consumes the next argument for a flag that carries a
		// NoOptDefVal, so the path arrives as a positional argument.
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("query") {
				path, _ := cmd.Flags().GetString("query")
				if len(args) == 1 {
					path = args[0]
				}
				return cli.Query(path, cmd.OutOrStdout())
			}
			if len(args) == 1 {
				return fmt.Errorf("%w: unexpected argument %q", errUsage, args[0])
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts, logger, err := config.LoadAndValidate(cfgFile, profileName, version, verbose, cmd.Flags())
			if err != nil {
				return err
			}
			if debug {
				opts.Debug = true
			}

			// Give the TUI a moment to take over stderr before the engine logs.
			if opts.TuiEnabled && !opts.Verbose && term.IsTerminal(int(os.Stderr.Fd())) {
				time.Sleep(100 * time.Millisecond)
			}

			return cli.Run(ctx, opts, logger)
		},
	}

	cmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default searches ., $HOME/.config/fuefit/, $HOME/.fuefit/)")
	cmd.PersistentFlags().StringVar(&profileName, "profile", "", "Name of configuration profile to use")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables TUI)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Print full error chains on failure")
	cmd.PersistentFlags().Bool("no-tui", false, "Disable the interactive terminal UI even in a TTY")

	// Input flags.
	cmd.Flags().StringArrayP("ifile", "i", nil, "Input table path; '-' reads stdin (repeatable, one per file)")
	cmd.Flags().StringArrayP("icolumns", "c", nil, "Column spec per file: header-row index or comma-separated NAME[(UNITS)] list")
	cmd.Flags().StringArrayP("irenames", "r", nil, "Comma-separated rename list per file (X keeps the original name)")
	cmd.Flags().StringArrayP("iformat", "f", nil, "Input format per file: AUTO, CSV, TXT, XLS or JSON")
	cmd.Flags().StringArrayP("iopts", "I", nil, "Reader options per file as space-separated KEY=VALUE pairs (sep, encoding, skiprows, comment, thousands)")

	// Model flags.
	cmd.Flags().StringP("model", "m", "", "Model file (JSON, YAML or TOML) merged onto the built-in defaults")
	cmd.Flags().StringArrayP("override", "M", nil, "Model override PATH=VALUE; relative paths land under /engine/ (repeatable, ordered)")
	cmd.Flags().String("query", "", "Print the default model subtree at the given path and exit")
	cmd.Flags().Lookup("query").NoOptDefVal = "/"

	// Output flags.
	cmd.Flags().StringP("ofile", "o", "", "Output path; empty or '-' writes stdout")
	cmd.Flags().StringP("oformat", "t", "AUTO", "Output format: AUTO, CSV, TXT or JSON")
	cmd.Flags().StringArrayP("oopts", "O", nil, "Writer options as KEY=VALUE pairs (indent, sep)")
	cmd.Flags().BoolP("append", "a", false, "Append to the output file instead of truncating")

	return cmd
}

// Execute runs the root command and maps the resulting error to an exit code.
func Execute() int {
	err := newRootCmd().Execute()
	if err == nil {
		return exitOK
	}
	printError(os.Stderr, err, isDebugRequested(os.Args[1:]))
	return exitCode(err)
}

// exitCode maps a run error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.Is(err, fit.ErrValidation):
		return exitValidation
	case errors.Is(err, fit.ErrConfiguration):
		return exitConfiguration
	default:
		return exitFailure
	}
}

// printError writes the failure to w. In debug mode every wrapped cause is
// printed on its own line.
func printError(w io.Writer, err error, debug bool) {
	fmt.Fprintf(w, "fuefit: %v\n", err)
	if !debug {
		return
	}
	printCauses(w, err, 1)
}

// printCauses walks both single- and multi-error wrapping.
func printCauses(w io.Writer, err error, depth int) {
	var causes []error
	switch wrapped := err.(type) {
	case interface{ Unwrap() []error }:
		causes = wrapped.Unwrap()
	case interface{ Unwrap() error }:
		if cause := wrapped.Unwrap(); cause != nil {
			causes = []error{cause}
		}
	}
	for _, cause := range causes {
		fmt.Fprintf(w, "%*scaused by: %v\n", depth*2, "", cause)
		printCauses(w, cause, depth+1)
	}
}

// isDebugRequested scans raw arguments so the error chain prints even when
// flag parsing itself failed.
func isDebugRequested(args []string) bool {
	for _, arg := range args {
		if arg == "--debug" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}
