package fit_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gfon/fuefit/internal/testutil"
	"github.com/gfon/fuefit/pkg/fit"
	"github.com/gfon/fuefit/pkg/fit/columns"
	"github.com/gfon/fuefit/pkg/fit/model"
)

// engineCSV is a small speed/load grid: enough independent points for the
// default degree-2 surface.
const engineCSV = `RPM,P,FC
1000,10,400
1000,30,900
1000,50,1500
2000,10,550
2000,30,1100
2000,50,1800
3000,10,700
3000,30,1400
3000,50,2200
`

func baseOptions(t *testing.T, inputs ...string) fit.Options {
	t.Helper()
	return fit.Options{
		InputFiles: inputs,
		Overrides:  []string{"fuel=PETROL"},
		OutputFile: filepath.Join(t.TempDir(), "out.json"),
		Logger:     testutil.DiscardLogger(),
	}
}

func TestFitMapHappyPath(t *testing.T) {
	input := filepath.Join(t.TempDir(), "engine.csv")
	testutil.WriteFile(t, input, engineCSV)
	opts := baseOptions(t, input)

	report, err := fit.FitMap(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.FileCount)
	assert.Equal(t, 9, report.Summary.PointCount)
	assert.Len(t, report.Summary.Coefficients, 6)
	require.Len(t, report.Files, 1)
	assert.Equal(t, input, report.Files[0].Path)
	assert.Equal(t, []string{"RPM", "P", "FC"}, report.Files[0].Columns)

	data, err := os.ReadFile(opts.OutputFile)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	engine := doc["engine"].(map[string]any)
	assert.Equal(t, "PETROL", engine["fuel"])
	coeffs, ok := engine["fc_map_coeffs"].([]any)
	require.True(t, ok)
	assert.Len(t, coeffs, 6)
}

func TestFitMapSplitAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	speeds := filepath.Join(dir, "speeds.csv")
	rest := filepath.Join(dir, "rest.csv")
	testutil.WriteFile(t, speeds, "RPM\n1000\n1000\n1000\n2000\n2000\n2000\n3000\n3000\n3000\n")
	testutil.WriteFile(t, rest, "P,FC\n10,400\n30,900\n50,1500\n10,550\n30,1100\n50,1800\n10,700\n30,1400\n50,2200\n")

	opts := baseOptions(t, speeds, rest)
	report, err := fit.FitMap(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.FileCount)
	assert.Equal(t, 9, report.Summary.PointCount)
}

func TestFitMapInjectedFitterAndHooks(t *testing.T) {
	input := filepath.Join(t.TempDir(), "engine.csv")
	testutil.WriteFile(t, input, engineCSV)

	fitter := &testutil.MockFitter{}
	fitter.On("Fit", mock.Anything, mock.Anything).Return([]float64{1, 2, 3}, nil)

	hooks := &testutil.MockHooks{}
	hooks.On("OnFileDiscovered", input).Return(nil)
	hooks.On("OnFileStatusUpdate", input, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	hooks.On("OnRunComplete", mock.Anything).Return(nil)

	opts := baseOptions(t, input)
	opts.Fitter = fitter
	opts.EventHooks = hooks

	report, err := fit.FitMap(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, report.Summary.Coefficients)
	fitter.AssertExpectations(t)
	hooks.AssertExpectations(t)
}

func TestFitMapRenamesAndExplicitColumns(t *testing.T) {
	input := filepath.Join(t.TempDir(), "raw.csv")
	testutil.WriteFile(t, input,
		"1000,10,400,ignored\n1000,50,1500,ignored\n2000,10,550,ignored\n2000,50,1800,ignored\n3000,10,700,ignored\n3000,30,1400,ignored\n3000,50,2200,ignored\n")

	opts := baseOptions(t, input)
	opts.ColumnSpecs = []string{"RPM,P,FC,X"}

	report, err := fit.FitMap(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Summary.PointCount)
}

func TestFitMapValidationFailure(t *testing.T) {
	input := filepath.Join(t.TempDir(), "engine.csv")
	testutil.WriteFile(t, input, engineCSV)

	opts := baseOptions(t, input)
	opts.Overrides = nil // fuel never set

	_, err := fit.FitMap(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, fit.ErrValidation)

	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.Violations)
}

func TestFitMapConfigurationErrors(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "engine.csv")
	testutil.WriteFile(t, input, engineCSV)

	t.Run("nil logger", func(t *testing.T) {
		_, err := fit.FitMap(context.Background(), fit.Options{InputFiles: []string{input}})
		assert.ErrorIs(t, err, fit.ErrConfiguration)
	})

	t.Run("no input files", func(t *testing.T) {
		opts := baseOptions(t, input)
		opts.InputFiles = nil
		_, err := fit.FitMap(context.Background(), opts)
		assert.ErrorIs(t, err, fit.ErrConfiguration)
	})

	t.Run("cardinality mismatch", func(t *testing.T) {
		opts := baseOptions(t, input)
		opts.Formats = []string{"CSV", "CSV"} // 2 formats, 1 file
		_, err := fit.FitMap(context.Background(), opts)
		assert.ErrorIs(t, err, fit.ErrConfiguration)
		assert.ErrorIs(t, err, columns.ErrCardinality)
	})

	t.Run("unknown quantity", func(t *testing.T) {
		opts := baseOptions(t, input)
		opts.Renames = []string{"BOOST,P,FC"}
		_, err := fit.FitMap(context.Background(), opts)
		assert.ErrorIs(t, err, fit.ErrConfiguration)
		assert.ErrorIs(t, err, columns.ErrUnknownQuantity)
	})

	t.Run("unsupported format name", func(t *testing.T) {
		opts := baseOptions(t, input)
		opts.Formats = []string{"PARQUET"}
		_, err := fit.FitMap(context.Background(), opts)
		assert.ErrorIs(t, err, fit.ErrConfiguration)
	})

	t.Run("xls input", func(t *testing.T) {
		opts := baseOptions(t, input)
		opts.Formats = []string{"XLS"}
		_, err := fit.FitMap(context.Background(), opts)
		assert.ErrorIs(t, err, fit.ErrConfiguration)
	})

	t.Run("override with missing parent", func(t *testing.T) {
		opts := baseOptions(t, input)
		opts.Overrides = append(opts.Overrides, "/nonexistent/foo=1")
		_, err := fit.FitMap(context.Background(), opts)
		assert.ErrorIs(t, err, fit.ErrConfiguration)
		assert.ErrorIs(t, err, model.ErrPathResolution)
	})

	t.Run("unknown reader option", func(t *testing.T) {
		opts := baseOptions(t, input)
		opts.ReadOpts = []string{"nrows=5"}
		_, err := fit.FitMap(context.Background(), opts)
		assert.ErrorIs(t, err, fit.ErrConfiguration)
	})

	t.Run("missing coverage", func(t *testing.T) {
		noFC := filepath.Join(dir, "nofc.csv")
		testutil.WriteFile(t, noFC, "RPM,P\n1000,10\n")
		opts := baseOptions(t, noFC)
		_, err := fit.FitMap(context.Background(), opts)
		assert.ErrorIs(t, err, fit.ErrConfiguration)
		assert.ErrorIs(t, err, columns.ErrCoverage)
	})
}

func TestFitMapModelFileMerge(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "engine.csv")
	testutil.WriteFile(t, input, engineCSV)
	modelFile := filepath.Join(dir, "model.yaml")
	testutil.WriteFile(t, modelFile, "engine:\n  fuel: DIESEL\n  p_max: 120\n")

	opts := baseOptions(t, input)
	opts.Overrides = []string{"p_max=130"} // command line wins over the model file
	opts.ModelFile = modelFile

	_, err := fit.FitMap(context.Background(), opts)
	require.NoError(t, err)

	data, err := os.ReadFile(opts.OutputFile)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	engine := doc["engine"].(map[string]any)
	assert.Equal(t, "DIESEL", engine["fuel"])
	assert.Equal(t, 130.0, engine["p_max"])
}

func TestFitMapTableOutput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "engine.csv")
	testutil.WriteFile(t, input, engineCSV)

	opts := baseOptions(t, input)
	opts.OutputFile = filepath.Join(t.TempDir(), "merged.csv")

	_, err := fit.FitMap(context.Background(), opts)
	require.NoError(t, err)

	data, err := os.ReadFile(opts.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "RPM (rev/min),P (kW),FC (g/h)")
	assert.Contains(t, string(data), "1000,10,400")
}

func TestFitMapCancelledContext(t *testing.T) {
	input := filepath.Join(t.TempDir(), "engine.csv")
	testutil.WriteFile(t, input, engineCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fit.FitMap(ctx, baseOptions(t, input))
	assert.ErrorIs(t, err, context.Canceled)
}
