package columns

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gfon/fuefit/pkg/fit/token"
)

// Option kind names used in cardinality diagnostics. They mirror the flag
// names so the message points straight at the offending command line.
const (
	OptionColumns  = "icolumns"
	OptionRenames  = "irenames"
	OptionFormat   = "iformat"
	OptionReadOpts = "I"
)

// ErrCardinality is the category error for an option list whose length is
// neither 0, 1 nor the input-file count.
var ErrCardinality = errors.New("option count mismatches input-file count")

// CardinalityError reports which option violated the cardinality rule.
type CardinalityError struct {
	Option string
	Count  int
	Files  int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("number of --%s(%d) mismatches number of --ifile(%d)", e.Option, e.Count, e.Files)
}

func (e *CardinalityError) Unwrap() error { return ErrCardinality }

// ErrUnknownQuantity is the category error for a column name outside the
// quantity taxonomy.
var ErrUnknownQuantity = errors.New("unrecognized quantity name")

// UnknownQuantityError reports a column name that is not in the taxonomy.
type UnknownQuantityError struct {
	Name string
}

func (e *UnknownQuantityError) Error() string {
	return fmt.Sprintf("column name %q is not a recognized quantity", e.Name)
}

func (e *UnknownQuantityError) Unwrap() error { return ErrUnknownQuantity }

// ErrCoverage is the category error for a column set that does not cover
// each mandatory quantity category exactly once.
var ErrCoverage = errors.New("mandatory quantity categories not covered exactly once")

// ColumnsSpec is the value of one --icolumns occurrence: either the index of
// the header row within the tabular data, or an explicit list of column
// specifiers for headerless data.
type ColumnsSpec struct {
	HeaderRow int // meaningful only when Explicit is false
	Explicit  bool
	Specs     []token.ColumnSpec
}

// ParseColumnsSpec parses one --icolumns argument. A bare integer selects the
// header row; otherwise the argument is a comma-separated list of
// NAME[(UNITS)] specifiers.
func ParseColumnsSpec(arg string) (ColumnsSpec, error) {
	trimmed := strings.TrimSpace(arg)
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < 0 {
			return ColumnsSpec{}, &token.SyntaxError{Input: arg, Reason: "header-row index must be >= 0"}
		}
		return ColumnsSpec{HeaderRow: n}, nil
	}
	specs, err := ParseSpecList(arg)
	if err != nil {
		return ColumnsSpec{}, err
	}
	return ColumnsSpec{Explicit: true, Specs: specs}, nil
}

// ParseSpecList parses a comma-separated list of NAME[(UNITS)] specifiers,
// as accepted by --irenames and the list form of --icolumns.
func ParseSpecList(arg string) ([]token.ColumnSpec, error) {
	parts := strings.Split(arg, ",")
	specs := make([]token.ColumnSpec, 0, len(parts))
	for _, part := range parts {
		cs, err := token.ParseColumnSpec(part)
		if err != nil {
			return nil, err
		}
		specs = append(specs, cs)
	}
	return specs, nil
}

// Lists holds the raw per-occurrence values of every input option that is
// related to the input files. A nil slice means the option was absent.
type Lists struct {
	Columns  []ColumnsSpec
	Renames  [][]token.ColumnSpec
	Formats  []string
	ReadOpts [][]token.KeyValue
}

// FileOptions is the effective option set for a single input file after the
// cardinality rule has been applied. Zero values select the defaults: nil
// Columns means "first row is the header", nil Renames means no renames, an
// empty Format means AUTO.
type FileOptions struct {
	Columns  *ColumnsSpec
	Renames  []token.ColumnSpec
	Format   string
	ReadOpts []token.KeyValue
}

// Resolve validates the cardinality rule for each option kind independently
// and produces the effective per-file option sets. nFiles below 1 is treated
// as 1 (reading standard input). The resolution is deterministic: calling it
// twice with the same inputs yields the same result.
func Resolve(nFiles int, lists Lists) ([]FileOptions, error) {
	if nFiles < 1 {
		nFiles = 1
	}

	if err := checkCardinality(OptionColumns, len(lists.Columns), nFiles); err != nil {
		return nil, err
	}
	if err := checkCardinality(OptionRenames, len(lists.Renames), nFiles); err != nil {
		return nil, err
	}
	if err := checkCardinality(OptionFormat, len(lists.Formats), nFiles); err != nil {
		return nil, err
	}
	if err := checkCardinality(OptionReadOpts, len(lists.ReadOpts), nFiles); err != nil {
		return nil, err
	}

	out := make([]FileOptions, nFiles)
	for i := range out {
		if cs, ok := pick(lists.Columns, i); ok {
			c := cs
			out[i].Columns = &c
		}
		if r, ok := pick(lists.Renames, i); ok {
			out[i].Renames = r
		}
		if f, ok := pick(lists.Formats, i); ok {
			out[i].Format = f
		}
		if ro, ok := pick(lists.ReadOpts, i); ok {
			out[i].ReadOpts = ro
		}
	}
	return out, nil
}

func checkCardinality(option string, count, files int) error {
	if count == 0 || count == 1 || count == files {
		return nil
	}
	return &CardinalityError{Option: option, Count: count, Files: files}
}

// pick selects the effective value for file index i: absent, broadcast, or
// positional.
func pick[T any](vals []T, i int) (T, bool) {
	var zero T
	switch len(vals) {
	case 0:
		return zero, false
	case 1:
		return vals[0], true
	default:
		return vals[i], true
	}
}

// MapColumns applies renames onto the column specifiers of one file and
// resolves every kept column against the quantity taxonomy. The rename list,
// when present, must have the same length as the specifier list, with X as a
// no-op placeholder. Within a single file each mandatory category may appear
// at most once; full coverage is checked across the merged column sets of
// all files (see CheckCoverage).
func MapColumns(specs, renames []token.ColumnSpec) ([]Column, error) {
	if renames != nil && len(renames) != len(specs) {
		return nil, &CardinalityError{Option: OptionRenames, Count: len(renames), Files: len(specs)}
	}

	cols := make([]Column, 0, len(specs))
	seen := make(map[Category]string, len(MandatoryCategories))
	for i, spec := range specs {
		eff := spec
		if renames != nil && renames[i].Name != SkipName {
			eff = renames[i]
		}
		if eff.Name == SkipName {
			cols = append(cols, Column{Index: i, Spec: eff, Skip: true})
			continue
		}
		q, ok := Lookup(eff.Name)
		if !ok {
			return nil, &UnknownQuantityError{Name: eff.Name}
		}
		if prev, dup := seen[q.Category]; dup {
			return nil, fmt.Errorf("%w: columns %q and %q are both %s quantities",
				ErrCoverage, prev, q.Name, q.Category)
		}
		seen[q.Category] = q.Name
		cols = append(cols, Column{Index: i, Spec: eff, Quantity: q})
	}
	return cols, nil
}

// CheckCoverage verifies that the merged column sets cover each mandatory
// category exactly once.
func CheckCoverage(sets ...[]Column) error {
	seen := make(map[Category]string, len(MandatoryCategories))
	for _, set := range sets {
		for _, c := range set {
			if c.Skip {
				continue
			}
			if prev, dup := seen[c.Quantity.Category]; dup {
				return fmt.Errorf("%w: columns %q and %q are both %s quantities",
					ErrCoverage, prev, c.Quantity.Name, c.Quantity.Category)
			}
			seen[c.Quantity.Category] = c.Quantity.Name
		}
	}
	for _, cat := range MandatoryCategories {
		if _, ok := seen[cat]; !ok {
			return fmt.Errorf("%w: no %s column given; accepted names: %s",
				ErrCoverage, cat, strings.Join(namesOf(cat), ", "))
		}
	}
	return nil
}

func namesOf(cat Category) []string {
	var names []string
	for _, q := range taxonomy {
		if q.Category == cat {
			names = append(names, q.Name)
		}
	}
	return names
}
