package fit

import "time"

// Report summarizes the result of a single FitMap run.
type Report struct {
	Summary ReportSummary `json:"summary"`
	Files   []FileInfo    `json:"files"`
}

// ReportSummary contains aggregated statistics for a FitMap run.
type ReportSummary struct {
	OutputPath      string    `json:"outputPath"`
	ProfileUsed     string    `json:"profileUsed,omitempty"`
	ConfigFilePath  string    `json:"configFilePath,omitempty"`
	FileCount       int       `json:"fileCount"`
	PointCount      int       `json:"pointCount"`
	Coefficients    []float64 `json:"coefficients"`
	DurationSeconds float64   `json:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp"`
	SchemaVersion   string    `json:"schemaVersion,omitempty"`
}

// FileInfo details a single input table that was loaded.
type FileInfo struct {
	Path       string   `json:"path"`
	Format     string   `json:"format"`
	Rows       int      `json:"rows"`
	Columns    []string `json:"columns"`
	DurationMs int64    `json:"durationMs"`
}
