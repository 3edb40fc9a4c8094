package fit

import "errors"

// Error categories returned by FitMap. Library users check against these
// with errors.Is; the wrapped chain carries the diagnostic detail.
var (
	// ErrConfiguration indicates the run could not start or proceed because of
	// bad inputs: malformed tokens, option cardinality mismatches, unknown
	// quantities, unsupported formats or unresolvable model paths. The CLI
	// maps it to exit code 3.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrValidation indicates the assembled model document failed schema
	// validation. The wrapped *model.ValidationError carries the full
	// violation list. The CLI maps it to exit code 4.
	ErrValidation = errors.New("model validation failed")

	// ErrReadFailed indicates an input table could not be read or decoded.
	ErrReadFailed = errors.New("failed to read input table")

	// ErrWriteFailed indicates the fitted output could not be written.
	ErrWriteFailed = errors.New("failed to write output")

	// ErrDataMismatch indicates the input tables cannot be merged, typically
	// because they contribute different row counts.
	ErrDataMismatch = errors.New("input tables do not align")

	// ErrFitFailed indicates the fitter could not produce coefficients from
	// the merged data points, e.g. too few points or a singular system.
	ErrFitFailed = errors.New("fitting failed")
)
