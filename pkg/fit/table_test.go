package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfon/fuefit/pkg/fit/columns"
	"github.com/gfon/fuefit/pkg/fit/model"
	"github.com/gfon/fuefit/pkg/fit/tabio"
	"github.com/gfon/fuefit/pkg/fit/token"
)

func mustColumns(t *testing.T, specs []token.ColumnSpec) []columns.Column {
	t.Helper()
	cols, err := columns.MapColumns(specs, nil)
	require.NoError(t, err)
	return cols
}

func TestMergeFiles(t *testing.T) {
	t.Run("two files, split categories", func(t *testing.T) {
		a := loadedFile{
			path: "a.csv",
			table: tabio.Table{
				Specs:   []token.ColumnSpec{{Name: "RPM"}},
				Records: [][]string{{"1000"}, {"2000"}},
			},
			cols: mustColumns(t, []token.ColumnSpec{{Name: "RPM"}}),
		}
		b := loadedFile{
			path: "b.csv",
			table: tabio.Table{
				Specs:   []token.ColumnSpec{{Name: "P"}, {Name: "FC"}},
				Records: [][]string{{"10", "300"}, {"20", "500"}},
			},
			cols: mustColumns(t, []token.ColumnSpec{{Name: "P"}, {Name: "FC"}}),
		}

		merged, rows, err := mergeFiles([]loadedFile{a, b})
		require.NoError(t, err)
		assert.Equal(t, 2, rows)
		assert.Equal(t, []float64{1000, 2000}, merged[columns.CategorySpeed].values)
		assert.Equal(t, []float64{300, 500}, merged[columns.CategoryFuel].values)
	})

	t.Run("row count mismatch", func(t *testing.T) {
		a := loadedFile{
			path:  "a.csv",
			table: tabio.Table{Specs: []token.ColumnSpec{{Name: "RPM"}}, Records: [][]string{{"1000"}}},
			cols:  mustColumns(t, []token.ColumnSpec{{Name: "RPM"}}),
		}
		b := loadedFile{
			path:  "b.csv",
			table: tabio.Table{Specs: []token.ColumnSpec{{Name: "FC"}}, Records: [][]string{{"300"}, {"500"}}},
			cols:  mustColumns(t, []token.ColumnSpec{{Name: "FC"}}),
		}
		_, _, err := mergeFiles([]loadedFile{a, b})
		assert.ErrorIs(t, err, ErrDataMismatch)
	})

	t.Run("non-numeric cell", func(t *testing.T) {
		a := loadedFile{
			path:  "a.csv",
			table: tabio.Table{Specs: []token.ColumnSpec{{Name: "RPM"}}, Records: [][]string{{"fast"}}},
			cols:  mustColumns(t, []token.ColumnSpec{{Name: "RPM"}}),
		}
		_, _, err := mergeFiles([]loadedFile{a})
		assert.ErrorIs(t, err, ErrReadFailed)
	})

	t.Run("skip columns dropped", func(t *testing.T) {
		a := loadedFile{
			path: "a.csv",
			table: tabio.Table{
				Specs:   []token.ColumnSpec{{Name: "RPM"}, {Name: "X"}},
				Records: [][]string{{"1000", "junk"}},
			},
			cols: mustColumns(t, []token.ColumnSpec{{Name: "RPM"}, {Name: "X"}}),
		}
		merged, _, err := mergeFiles([]loadedFile{a})
		require.NoError(t, err)
		assert.Len(t, merged, 1)
	})
}

func validParams() modelParams {
	return modelParams{
		rpmIdle:  750,
		rpmRated: 5500,
		pMax:     100,
		stroke:   94.2,
		capacity: 1600,
		lhv:      43000,
	}
}

func TestParamsFromModel(t *testing.T) {
	doc := model.Base()
	ptr, _ := model.ParsePointer("/engine/fuel")
	require.NoError(t, doc.Set(ptr, "PETROL"))

	p, err := paramsFromModel(doc)
	require.NoError(t, err)
	assert.Equal(t, validParams(), p)

	require.NoError(t, doc.Set(ptr, "DIESEL"))
	p, err = paramsFromModel(doc)
	require.NoError(t, err)
	assert.Equal(t, 42700.0, p.lhv)
}

func TestDenormalize(t *testing.T) {
	p := validParams()

	mk := func(speed, work, fuel string, sv, wv, fv float64) map[columns.Category]series {
		lookup := func(name string) columns.Quantity {
			q, ok := columns.Lookup(name)
			require.True(t, ok, name)
			return q
		}
		return map[columns.Category]series{
			columns.CategorySpeed: {quantity: lookup(speed), values: []float64{sv}},
			columns.CategoryWork:  {quantity: lookup(work), values: []float64{wv}},
			columns.CategoryFuel:  {quantity: lookup(fuel), values: []float64{fv}},
		}
	}

	t.Run("canonical passthrough", func(t *testing.T) {
		points, err := denormalize(mk("RPM", "P", "FC", 2000, 50, 4000), 1, p)
		require.NoError(t, err)
		assert.Equal(t, Point{RPM: 2000, P: 50, FC: 4000}, points[0])
	})

	t.Run("normalized quantities", func(t *testing.T) {
		points, err := denormalize(mk("RPMnorm", "Pnorm", "FCnorm", 0.5, 0.6, 0.3), 1, p)
		require.NoError(t, err)
		assert.InDelta(t, 0.5*(5500-750)+750, points[0].RPM, 1e-9)
		assert.InDelta(t, 60.0, points[0].P, 1e-9)
		assert.InDelta(t, 30.0, points[0].FC, 1e-9)
	})

	t.Run("angular speed", func(t *testing.T) {
		points, err := denormalize(mk("Omega", "P", "FC", 2*math.Pi*2000/60, 50, 4000), 1, p)
		require.NoError(t, err)
		assert.InDelta(t, 2000, points[0].RPM, 1e-9)
	})

	t.Run("mean piston speed", func(t *testing.T) {
		// CM = 2 * stroke * RPM / 60, stroke in meters
		cm := 2 * (94.2 / 1000) * 2000 / 60
		points, err := denormalize(mk("CM", "P", "FC", cm, 50, 4000), 1, p)
		require.NoError(t, err)
		assert.InDelta(t, 2000, points[0].RPM, 1e-9)
	})

	t.Run("torque", func(t *testing.T) {
		// P[kW] = T * ω / 1000
		points, err := denormalize(mk("RPM", "T", "FC", 2000, 200, 4000), 1, p)
		require.NoError(t, err)
		assert.InDelta(t, 200*2000*2*math.Pi/60000, points[0].P, 1e-9)
	})

	t.Run("mean effective pressures", func(t *testing.T) {
		points, err := denormalize(mk("RPM", "PME", "PMF", 3000, 10, 5), 1, p)
		require.NoError(t, err)
		assert.InDelta(t, 10*1600*3000/1.2e6, points[0].P, 1e-9)
		assert.InDelta(t, 3*5*1600*3000/43000.0, points[0].FC, 1e-6)
	})

	t.Run("pressure quantities need capacity", func(t *testing.T) {
		broken := p
		broken.capacity = 0
		_, err := denormalize(mk("RPM", "PME", "FC", 3000, 10, 400), 1, broken)
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}
