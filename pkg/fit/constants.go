package fit

// Defaults used when setting up viper defaults in the CLI configuration layer.
const (
	// DefaultTuiEnabled is the default state for the terminal UI.
	DefaultTuiEnabled = true
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
	// DefaultAppend is the default state for appending to the output file.
	DefaultAppend = false
	// DefaultFitDegree is the polynomial degree of the default fitter.
	DefaultFitDegree = 2
)

const (
	// StdinName is the input-file argument that selects standard input.
	StdinName = "-"
	// CoeffsPointer is the model path the fitted coefficients are written to.
	CoeffsPointer = "/engine/fc_map_coeffs"
	// ReportSchemaVersion indicates the version of the JSON report structure.
	ReportSchemaVersion = "1.0"
)
