package model

// Base returns a fresh deep copy of the default engine model. The fuel kind
// deliberately has no default: the schema requires it, so a run that never
// sets /engine/fuel fails validation instead of silently assuming a fuel.
//
// Units: rpm values in rev/min, p_max in kW, stroke and bore in mm, capacity
// in cm3, lower-heating values in kJ/kg.
func Base() Document {
	return Document{
		"engine": map[string]any{
			"rpm_idle":  750.0,
			"rpm_rated": 5500.0,
			"p_max":     100.0,
			"stroke":    94.2,
			"bore":      82.0,
			"capacity":  1600.0,
			"turbo":     false,
		},
		"params": map[string]any{
			"fuel": map[string]any{
				"PETROL": map[string]any{"lhv": 43000.0},
				"DIESEL": map[string]any{"lhv": 42700.0},
			},
		},
	}
}
