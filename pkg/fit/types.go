package fit

// Status defines the possible processing states of an input file during a run.
type Status string

const (
	StatusPending Status = "pending"
	StatusReading Status = "reading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

// Point is one measurement after denormalization to the canonical columns:
// engine speed in rev/min, power in kW, fuel consumption in g/h.
type Point struct {
	RPM float64
	P   float64
	FC  float64
}
