package fit

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gfon/fuefit/pkg/fit/columns"
	"github.com/gfon/fuefit/pkg/fit/model"
	"github.com/gfon/fuefit/pkg/fit/tabio"
)

// loadedFile pairs one parsed input table with its resolved column mapping.
type loadedFile struct {
	path  string
	table tabio.Table
	cols  []columns.Column
}

// series is one quantity column after numeric parsing.
type series struct {
	quantity columns.Quantity
	values   []float64
}

// mergeFiles combines the quantity columns of all loaded files into one
// series per category. Every file must contribute the same row count, and
// coverage (exactly one column per mandatory category across the merged
// sets) has already been checked by columns.CheckCoverage.
func mergeFiles(files []loadedFile) (map[columns.Category]series, int, error) {
	rows := -1
	out := make(map[columns.Category]series, len(columns.MandatoryCategories))

	for _, f := range files {
		if rows == -1 {
			rows = f.table.Rows()
		} else if f.table.Rows() != rows {
			return nil, 0, fmt.Errorf("%w: %q has %d rows, earlier input has %d",
				ErrDataMismatch, f.path, f.table.Rows(), rows)
		}

		for _, col := range f.cols {
			if col.Skip {
				continue
			}
			values, err := parseColumn(f, col)
			if err != nil {
				return nil, 0, err
			}
			out[col.Quantity.Category] = series{quantity: col.Quantity, values: values}
		}
	}

	if rows < 1 {
		return nil, 0, fmt.Errorf("%w: the merged inputs hold no data rows", ErrDataMismatch)
	}
	return out, rows, nil
}

func parseColumn(f loadedFile, col columns.Column) ([]float64, error) {
	values := make([]float64, len(f.table.Records))
	for r, record := range f.table.Records {
		v, err := strconv.ParseFloat(record[col.Index], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q row %d, column %q: %q is not a number",
				ErrReadFailed, f.path, r, col.Spec.Name, record[col.Index])
		}
		values[r] = v
	}
	return values, nil
}

// modelParams are the scalars denormalization needs, pulled from the
// validated model document.
type modelParams struct {
	rpmIdle  float64 // rev/min
	rpmRated float64 // rev/min
	pMax     float64 // kW
	stroke   float64 // mm
	capacity float64 // cm3
	lhv      float64 // kJ/kg, for the selected fuel
}

func paramsFromModel(doc model.Document) (modelParams, error) {
	num := func(path string) (float64, error) {
		ptr, err := model.ParsePointer(path)
		if err != nil {
			return 0, err
		}
		v, err := doc.Resolve(ptr)
		if err != nil {
			return 0, err
		}
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("model value at %s is %T, want a number", path, v)
		}
		return f, nil
	}

	var p modelParams
	var err error
	if p.rpmIdle, err = num("/engine/rpm_idle"); err != nil {
		return p, err
	}
	if p.rpmRated, err = num("/engine/rpm_rated"); err != nil {
		return p, err
	}
	if p.pMax, err = num("/engine/p_max"); err != nil {
		return p, err
	}
	if p.stroke, err = num("/engine/stroke"); err != nil {
		return p, err
	}
	if p.capacity, err = num("/engine/capacity"); err != nil {
		return p, err
	}

	fuelPtr, err := model.ParsePointer("/engine/fuel")
	if err != nil {
		return p, err
	}
	fuel, err := doc.Resolve(fuelPtr)
	if err != nil {
		return p, err
	}
	fuelName, ok := fuel.(string)
	if !ok {
		return p, fmt.Errorf("model value at /engine/fuel is %T, want a string", fuel)
	}
	if p.lhv, err = num("/params/fuel/" + fuelName + "/lhv"); err != nil {
		return p, err
	}
	return p, nil
}

// denormalize converts the merged series to the canonical columns: engine
// speed in rev/min, power in kW, fuel consumption in g/h. Speed converts
// first because the torque- and pressure-based quantities need the per-row
// engine speed.
func denormalize(merged map[columns.Category]series, rows int, p modelParams) ([]Point, error) {
	points := make([]Point, rows)

	speed := merged[columns.CategorySpeed]
	for r := range points {
		v := speed.values[r]
		switch speed.quantity.Name {
		case "RPM":
			points[r].RPM = v
		case "RPMnorm":
			points[r].RPM = v*(p.rpmRated-p.rpmIdle) + p.rpmIdle
		case "Omega":
			points[r].RPM = v * 60 / (2 * math.Pi)
		case "CM":
			if p.stroke <= 0 {
				return nil, fmt.Errorf("%w: CM input needs a positive /engine/stroke", ErrConfiguration)
			}
			points[r].RPM = v * 30000 / p.stroke
		default:
			return nil, fmt.Errorf("no engine-speed conversion for %q", speed.quantity.Name)
		}
	}

	work := merged[columns.CategoryWork]
	for r := range points {
		v := work.values[r]
		switch work.quantity.Name {
		case "P":
			points[r].P = v
		case "Pnorm":
			points[r].P = v * p.pMax
		case "T":
			points[r].P = v * points[r].RPM * 2 * math.Pi / 60000
		case "PME":
			if p.capacity <= 0 {
				return nil, fmt.Errorf("%w: PME input needs a positive /engine/capacity", ErrConfiguration)
			}
			points[r].P = v * p.capacity * points[r].RPM / 1.2e6
		default:
			return nil, fmt.Errorf("no work-capability conversion for %q", work.quantity.Name)
		}
	}

	fuel := merged[columns.CategoryFuel]
	for r := range points {
		v := fuel.values[r]
		switch fuel.quantity.Name {
		case "FC":
			points[r].FC = v
		case "FCnorm":
			points[r].FC = v * p.pMax
		case "PMF":
			if p.capacity <= 0 {
				return nil, fmt.Errorf("%w: PMF input needs a positive /engine/capacity", ErrConfiguration)
			}
			points[r].FC = 3 * v * p.capacity * points[r].RPM / p.lhv
		default:
			return nil, fmt.Errorf("no fuel-consumption conversion for %q", fuel.quantity.Name)
		}
	}

	return points, nil
}
