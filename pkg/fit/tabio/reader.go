package tabio

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gfon/fuefit/pkg/fit/columns"
	"github.com/gfon/fuefit/pkg/fit/token"
)

// Table is one parsed input table: column specifiers plus string records.
// Numeric interpretation happens later, once the quantity mapping is known.
type Table struct {
	Specs   []token.ColumnSpec
	Records [][]string
}

// Rows returns the number of data records.
func (t Table) Rows() int { return len(t.Records) }

// Read parses one input table from r. The format must already be resolved
// (no AUTO). cs selects the header row or supplies explicit column
// specifiers; nil means "first row is the header".
func Read(r io.Reader, format Format, cs *columns.ColumnsSpec, ro ReadOptions) (Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Table{}, err
	}
	if looksBinary(content) {
		return Table{}, ErrBinaryData
	}
	content, err = decodeText(content, ro.Encoding)
	if err != nil {
		return Table{}, err
	}

	var tbl Table
	switch format {
	case FormatCSV:
		tbl, err = readCSV(content, cs, ro)
	case FormatTXT:
		tbl, err = readTXT(content, cs, ro)
	case FormatJSON:
		tbl, err = readJSON(content, cs)
	case FormatXLS:
		return Table{}, fmt.Errorf("%w: no spreadsheet reader is available; export the sheet as CSV", ErrUnsupportedFormat)
	default:
		return Table{}, fmt.Errorf("%w: format %q not resolved before reading", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Table{}, err
	}

	if ro.Thousands != 0 {
		stripThousands(tbl.Records, ro.Thousands)
	}
	return tbl, nil
}

func readCSV(content []byte, cs *columns.ColumnsSpec, ro ReadOptions) (Table, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = ','
	if ro.Sep != 0 {
		reader.Comma = ro.Sep
	}
	if ro.Comment != 0 {
		reader.Comment = ro.Comment
	}
	reader.FieldsPerRecord = -1 // widths are validated against the specs below
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("malformed CSV: %w", err)
	}
	return buildTable(skipRows(rows, ro.SkipRows), cs)
}

func readTXT(content []byte, cs *columns.ColumnsSpec, ro ReadOptions) (Table, error) {
	comment := "#"
	if ro.Comment != 0 {
		comment = string(ro.Comment)
	}

	var rows [][]string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, comment) {
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	return buildTable(skipRows(rows, ro.SkipRows), cs)
}

// readJSON reads an array of records. JSON tables are self-describing, so
// the header-row index is ignored; an explicit specifier list, when given,
// replaces the names positionally in sorted key order and must match the
// column count.
func readJSON(content []byte, cs *columns.ColumnsSpec) (Table, error) {
	var records []map[string]any
	if err := json.Unmarshal(content, &records); err != nil {
		return Table{}, fmt.Errorf("malformed JSON table (want an array of objects): %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("JSON table holds no records")
	}

	keys := make([]string, 0, len(records[0]))
	for k := range records[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	specs := make([]token.ColumnSpec, len(keys))
	if cs != nil && cs.Explicit {
		if len(cs.Specs) != len(keys) {
			return Table{}, fmt.Errorf("explicit column list has %d entries but the JSON table has %d columns", len(cs.Specs), len(keys))
		}
		copy(specs, cs.Specs)
	} else {
		for i, k := range keys {
			spec, err := token.ParseColumnSpec(k)
			if err != nil {
				return Table{}, err
			}
			specs[i] = spec
		}
	}

	out := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(keys))
		for j, k := range keys {
			v, ok := rec[k]
			if !ok {
				return Table{}, fmt.Errorf("JSON record %d is missing column %q", i, k)
			}
			cell, err := stringifyCell(v)
			if err != nil {
				return Table{}, fmt.Errorf("JSON record %d, column %q: %w", i, k, err)
			}
			row[j] = cell
		}
		out[i] = row
	}
	return Table{Specs: specs, Records: out}, nil
}

// buildTable applies the header/explicit column handling shared by the CSV
// and TXT readers.
func buildTable(rows [][]string, cs *columns.ColumnsSpec) (Table, error) {
	if cs != nil && cs.Explicit {
		if err := checkWidths(rows, len(cs.Specs), 0); err != nil {
			return Table{}, err
		}
		return Table{Specs: cs.Specs, Records: rows}, nil
	}

	headerRow := 0
	if cs != nil {
		headerRow = cs.HeaderRow
	}
	if headerRow >= len(rows) {
		return Table{}, fmt.Errorf("header row %d requested but the table has only %d rows", headerRow, len(rows))
	}

	header := rows[headerRow]
	specs := make([]token.ColumnSpec, len(header))
	for i, cell := range header {
		spec, err := token.ParseColumnSpec(cell)
		if err != nil {
			return Table{}, err
		}
		specs[i] = spec
	}

	records := rows[headerRow+1:]
	if err := checkWidths(records, len(specs), headerRow+1); err != nil {
		return Table{}, err
	}
	return Table{Specs: specs, Records: records}, nil
}

func checkWidths(rows [][]string, want, offset int) error {
	for i, row := range rows {
		if len(row) != want {
			return fmt.Errorf("row %d has %d fields, want %d", offset+i, len(row), want)
		}
	}
	return nil
}

func skipRows(rows [][]string, n int) [][]string {
	if n >= len(rows) {
		return nil
	}
	return rows[n:]
}

func stringifyCell(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("cell value %v (%T) is not a scalar", v, v)
	}
}

func stripThousands(records [][]string, sep rune) {
	s := string(sep)
	for _, row := range records {
		for i, cell := range row {
			row[i] = strings.ReplaceAll(cell, s, "")
		}
	}
}
