// Package fit calculates an engine map by fitting fuel-consumption data
// points read from tabular input files onto a validated engine model.
package fit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gfon/fuefit/pkg/fit/columns"
	"github.com/gfon/fuefit/pkg/fit/model"
	"github.com/gfon/fuefit/pkg/fit/tabio"
	"github.com/gfon/fuefit/pkg/fit/token"
)

// FitMap runs one complete fit: it resolves the per-file input options,
// reads and merges every input table, assembles and validates the model
// document, fits the fuel-consumption surface and writes the fitted model.
// The run is strictly sequential; ctx is checked between stages.
func FitMap(ctx context.Context, opts Options) (Report, error) {
	start := time.Now()

	if opts.Logger == nil {
		return Report{}, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfiguration)
	}
	if opts.EventHooks == nil {
		opts.EventHooks = &NoOpHooks{}
	}
	if opts.Fitter == nil {
		opts.Fitter = NewPolynomialFitter()
	}
	if len(opts.InputFiles) == 0 {
		return Report{}, fmt.Errorf("%w: at least one input file is required", ErrConfiguration)
	}

	logger := slog.New(opts.Logger).With(slog.String("component", "engine"))

	// Stage 1: resolve per-file options.
	lists, err := parseInputLists(opts)
	if err != nil {
		return Report{}, configErr(err)
	}
	perFile, err := columns.Resolve(len(opts.InputFiles), lists)
	if err != nil {
		return Report{}, configErr(err)
	}

	overrides, err := parseOverrides(opts.Overrides)
	if err != nil {
		return Report{}, configErr(err)
	}

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	// Stage 2: build the model document. Overrides apply after the model
	// file so the command line has the last word.
	doc := model.Base()
	if opts.ModelFile != "" {
		logger.Debug("merging model file", "path", opts.ModelFile)
		if err := doc.MergeFile(opts.ModelFile); err != nil {
			return Report{}, configErr(err)
		}
	}
	if err := doc.Apply(overrides); err != nil {
		return Report{}, configErr(err)
	}

	// Stage 3: read the input tables, strictly in sequence.
	var files []loadedFile
	var infos []FileInfo
	for i, path := range opts.InputFiles {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		info, lf, err := loadFile(logger, opts.EventHooks, path, perFile[i])
		if err != nil {
			return Report{}, err
		}
		files = append(files, lf)
		infos = append(infos, info)
	}

	var sets [][]columns.Column
	for _, f := range files {
		sets = append(sets, f.cols)
	}
	if err := columns.CheckCoverage(sets...); err != nil {
		return Report{}, configErr(err)
	}

	merged, rows, err := mergeFiles(files)
	if err != nil {
		return Report{}, err
	}
	logger.Debug("inputs merged", "files", len(files), "rows", rows)

	// Stage 4: validate the assembled model as a whole.
	validator, err := model.NewValidator()
	if err != nil {
		return Report{}, err
	}
	if err := validator.Validate(doc); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	// Stage 5: denormalize to canonical columns and fit.
	params, err := paramsFromModel(doc)
	if err != nil {
		return Report{}, configErr(err)
	}
	points, err := denormalize(merged, rows, params)
	if err != nil {
		return Report{}, err
	}

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	coeffs, err := opts.Fitter.Fit(ctx, points)
	if err != nil {
		return Report{}, err
	}
	logger.Debug("surface fitted", "points", len(points), "coefficients", len(coeffs))

	ptr, err := model.ParsePointer(CoeffsPointer)
	if err != nil {
		return Report{}, err
	}
	coeffsValue := make([]any, len(coeffs))
	for i, c := range coeffs {
		coeffsValue[i] = c
	}
	if err := doc.Set(ptr, coeffsValue); err != nil {
		return Report{}, err
	}

	// Stage 6: emit the fitted model (or the merged table).
	if err := writeOutput(opts, doc, points); err != nil {
		return Report{}, err
	}

	report := Report{
		Summary: ReportSummary{
			OutputPath:      opts.OutputFile,
			ProfileUsed:     opts.ProfileName,
			ConfigFilePath:  opts.ConfigFilePath,
			FileCount:       len(files),
			PointCount:      len(points),
			Coefficients:    coeffs,
			DurationSeconds: time.Since(start).Seconds(),
			Timestamp:       time.Now().UTC(),
			SchemaVersion:   ReportSchemaVersion,
		},
		Files: infos,
	}
	if err := opts.EventHooks.OnRunComplete(report); err != nil {
		logger.Warn("OnRunComplete hook failed", "error", err)
	}
	return report, nil
}

// configErr stamps an error with the configuration category unless it
// already carries one.
func configErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}

// parseInputLists turns the raw option strings into the typed per-occurrence
// lists the cardinality resolver consumes.
func parseInputLists(opts Options) (columns.Lists, error) {
	var lists columns.Lists

	for _, arg := range opts.ColumnSpecs {
		cs, err := columns.ParseColumnsSpec(arg)
		if err != nil {
			return columns.Lists{}, err
		}
		lists.Columns = append(lists.Columns, cs)
	}
	for _, arg := range opts.Renames {
		specs, err := columns.ParseSpecList(arg)
		if err != nil {
			return columns.Lists{}, err
		}
		lists.Renames = append(lists.Renames, specs)
	}
	for _, arg := range opts.Formats {
		format, err := tabio.ParseFormat(arg)
		if err != nil {
			return columns.Lists{}, err
		}
		lists.Formats = append(lists.Formats, string(format))
	}
	for _, group := range opts.ReadOpts {
		pairs, err := parseKeyValues(strings.Fields(group))
		if err != nil {
			return columns.Lists{}, err
		}
		lists.ReadOpts = append(lists.ReadOpts, pairs)
	}
	return lists, nil
}

func parseKeyValues(args []string) ([]token.KeyValue, error) {
	pairs := make([]token.KeyValue, 0, len(args))
	for _, arg := range args {
		kv, err := token.ParseKeyValue(arg)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, kv)
	}
	return pairs, nil
}

// parseOverrides splits each PATH=VALUE argument at its first '='. Unlike
// the KEY=VALUE grammar of the reader/writer options, the path side may be
// an absolute model pointer.
func parseOverrides(args []string) ([]model.Override, error) {
	overrides := make([]model.Override, 0, len(args))
	for _, arg := range args {
		eq := strings.IndexByte(arg, '=')
		if eq < 0 {
			return nil, &token.SyntaxError{Input: arg, Offset: len(arg), Reason: "not a PATH=VALUE pair: missing '='"}
		}
		path := strings.TrimSpace(arg[:eq])
		if path == "" {
			return nil, &token.SyntaxError{Input: arg, Offset: 0, Reason: "not a PATH=VALUE pair: empty path"}
		}
		overrides = append(overrides, model.Override{Path: path, Value: strings.TrimSpace(arg[eq+1:])})
	}
	return overrides, nil
}

// loadFile reads and maps one input table, reporting progress through the
// event hooks.
func loadFile(logger *slog.Logger, hooks Hooks, path string, fo columns.FileOptions) (FileInfo, loadedFile, error) {
	started := time.Now()
	if err := hooks.OnFileDiscovered(path); err != nil {
		logger.Warn("OnFileDiscovered hook failed", "path", path, "error", err)
	}
	statusUpdate := func(status Status, message string) {
		if err := hooks.OnFileStatusUpdate(path, status, message, time.Since(started)); err != nil {
			logger.Warn("OnFileStatusUpdate hook failed", "path", path, "error", err)
		}
	}
	statusUpdate(StatusReading, "")

	fail := func(err error) (FileInfo, loadedFile, error) {
		statusUpdate(StatusFailed, err.Error())
		return FileInfo{}, loadedFile{}, err
	}

	format, err := tabio.ParseFormat(fo.Format)
	if err != nil {
		return fail(configErr(err))
	}
	format = tabio.DetectFormat(path, format)

	ro, err := tabio.ParseReadOptions(fo.ReadOpts)
	if err != nil {
		return fail(configErr(err))
	}

	var reader io.ReadCloser
	if path == StdinName {
		reader = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrReadFailed, err))
		}
		reader = f
	}
	defer reader.Close()

	table, err := tabio.Read(reader, format, fo.Columns, ro)
	if err != nil {
		switch {
		case errors.Is(err, tabio.ErrUnsupportedFormat), errors.Is(err, tabio.ErrUnknownOption), errors.Is(err, token.ErrSyntax):
			return fail(configErr(err))
		default:
			return fail(fmt.Errorf("%w: %q: %w", ErrReadFailed, path, err))
		}
	}

	cols, err := columns.MapColumns(table.Specs, fo.Renames)
	if err != nil {
		return fail(configErr(err))
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Spec.Name
	}
	logger.Debug("input loaded", "path", path, "format", string(format), "rows", table.Rows(), "columns", names)
	statusUpdate(StatusLoaded, strconv.Itoa(table.Rows())+" rows")

	info := FileInfo{
		Path:       path,
		Format:     string(format),
		Rows:       table.Rows(),
		Columns:    names,
		DurationMs: time.Since(started).Milliseconds(),
	}
	return info, loadedFile{path: path, table: table, cols: cols}, nil
}

// writeOutput emits the run result: the fitted model document for JSON, or
// the merged canonical table for CSV/TXT.
func writeOutput(opts Options, doc model.Document, points []Point) error {
	format, err := tabio.ParseFormat(opts.OutputFormat)
	if err != nil {
		return configErr(err)
	}
	format = tabio.DetectOutputFormat(opts.OutputFile, format)

	pairs, err := parseKeyValues(opts.WriteOpts)
	if err != nil {
		return configErr(err)
	}
	wo, err := tabio.ParseWriteOptions(pairs)
	if err != nil {
		return configErr(err)
	}

	out, err := tabio.Open(opts.OutputFile, opts.Append)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	defer out.Close()

	switch format {
	case tabio.FormatJSON:
		err = tabio.WriteModel(out, doc, wo)
	case tabio.FormatCSV, tabio.FormatTXT:
		err = tabio.WriteTable(out, pointsTable(points), format, wo)
	default:
		return configErr(fmt.Errorf("%w: cannot write %s output", tabio.ErrUnsupportedFormat, format))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// pointsTable renders the merged, denormalized points as a table in the
// canonical columns.
func pointsTable(points []Point) tabio.Table {
	specs := []token.ColumnSpec{
		{Name: "RPM", Units: "rev/min"},
		{Name: "P", Units: "kW"},
		{Name: "FC", Units: "g/h"},
	}
	records := make([][]string, len(points))
	for i, pt := range points {
		records[i] = []string{
			strconv.FormatFloat(pt.RPM, 'g', -1, 64),
			strconv.FormatFloat(pt.P, 'g', -1, 64),
			strconv.FormatFloat(pt.FC, 'g', -1, 64),
		}
	}
	return tabio.Table{Specs: specs, Records: records}
}
