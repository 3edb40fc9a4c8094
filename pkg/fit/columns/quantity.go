// Package columns resolves the per-file column options of a fuefit run:
// it applies the cardinality rule relating repeated input options to the
// number of input files, and maps free-form column specifiers onto the fixed
// taxonomy of physical quantities the fitting stage understands.
package columns

import "github.com/gfon/fuefit/pkg/fit/token"

// Category partitions the recognized quantities. Each of the three mandatory
// categories must be covered exactly once by the merged column set of a run;
// CategoryIgnore marks columns to skip.
type Category string

const (
	CategorySpeed  Category = "engine-speed"
	CategoryWork   Category = "work-capability"
	CategoryFuel   Category = "fuel-consumption"
	CategoryIgnore Category = "ignorable"
)

// MandatoryCategories lists the categories that must each be covered exactly
// once, in reporting order.
var MandatoryCategories = []Category{CategorySpeed, CategoryWork, CategoryFuel}

// Quantity describes one recognized column role.
type Quantity struct {
	Name         string
	Category     Category
	DefaultUnits string
	Description  string
}

// SkipName marks a column that carries no quantity and is dropped on load.
const SkipName = "X"

// taxonomy is the fixed vocabulary of recognized column names. Matching is
// case-sensitive, like every string value on the fuefit command line.
var taxonomy = []Quantity{
	{Name: "RPM", Category: CategorySpeed, DefaultUnits: "rad/min"},
	{Name: "RPMnorm", Category: CategorySpeed, DefaultUnits: "rad/min",
		Description: "normalized against RPMnorm * RPM_IDLE + (RPM_RATED - RPM_IDLE)"},
	{Name: "Omega", Category: CategorySpeed, DefaultUnits: "rad/sec"},
	{Name: "CM", Category: CategorySpeed, DefaultUnits: "m/sec", Description: "mean piston speed"},

	{Name: "P", Category: CategoryWork, DefaultUnits: "kW"},
	{Name: "Pnorm", Category: CategoryWork, DefaultUnits: "kW", Description: "normalized against P_MAX"},
	{Name: "T", Category: CategoryWork, DefaultUnits: "Nm"},
	{Name: "PME", Category: CategoryWork, DefaultUnits: "bar"},

	{Name: "FC", Category: CategoryFuel, DefaultUnits: "g/h"},
	{Name: "FCnorm", Category: CategoryFuel, DefaultUnits: "g/h", Description: "normalized against P_MAX"},
	{Name: "PMF", Category: CategoryFuel, DefaultUnits: "bar"},

	{Name: SkipName, Category: CategoryIgnore},
}

var quantityByName = func() map[string]Quantity {
	m := make(map[string]Quantity, len(taxonomy))
	for _, q := range taxonomy {
		m[q.Name] = q
	}
	return m
}()

// Lookup returns the quantity registered under name.
func Lookup(name string) (Quantity, bool) {
	q, ok := quantityByName[name]
	return q, ok
}

// Taxonomy returns the recognized quantities in declaration order. The
// returned slice is a copy.
func Taxonomy() []Quantity {
	out := make([]Quantity, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Column associates one table column with its resolved quantity.
type Column struct {
	Index    int              // position within the file's column set
	Spec     token.ColumnSpec // effective specifier after renames
	Quantity Quantity
	Skip     bool // true for X columns
}

// Units returns the effective units of the column: the specifier's units if
// present, otherwise the quantity's default.
func (c Column) Units() string {
	if c.Spec.Units != "" {
		return c.Spec.Units
	}
	return c.Quantity.DefaultUnits
}
