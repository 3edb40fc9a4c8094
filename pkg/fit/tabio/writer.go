package tabio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gfon/fuefit/pkg/fit/model"
	"github.com/gfon/fuefit/pkg/fit/token"
)

// Open resolves the output destination. An empty path or "-" selects
// standard output, which is not closed by the returned closer.
func Open(path string, appendTo bool) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY
	if appendTo {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open output file %q: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// WriteModel emits the model document as indented JSON.
func WriteModel(w io.Writer, doc model.Document, wo WriteOptions) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", strings.Repeat(" ", wo.Indent))
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return fmt.Errorf("cannot encode model document: %w", err)
	}
	return nil
}

// WriteTable emits a table in the requested format: CSV (separator from the
// writer options), TXT (tab-separated) or JSON (array of objects keyed by
// the column specifier).
func WriteTable(w io.Writer, tbl Table, format Format, wo WriteOptions) error {
	switch format {
	case FormatCSV, FormatTXT:
		cw := csv.NewWriter(w)
		cw.Comma = ','
		if format == FormatTXT {
			cw.Comma = '\t'
		}
		if wo.Sep != 0 {
			cw.Comma = wo.Sep
		}
		header := make([]string, len(tbl.Specs))
		for i, spec := range tbl.Specs {
			header[i] = specHeader(spec)
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(tbl.Records); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	case FormatJSON:
		records := make([]map[string]string, len(tbl.Records))
		for i, row := range tbl.Records {
			rec := make(map[string]string, len(row))
			for j, cell := range row {
				rec[specHeader(tbl.Specs[j])] = cell
			}
			records[i] = rec
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", strings.Repeat(" ", wo.Indent))
		return enc.Encode(records)
	case FormatXLS:
		return fmt.Errorf("%w: no spreadsheet writer is available", ErrUnsupportedFormat)
	default:
		return fmt.Errorf("%w: format %q not resolved before writing", ErrUnsupportedFormat, format)
	}
}

func specHeader(spec token.ColumnSpec) string {
	if spec.Units == "" {
		return spec.Name
	}
	return fmt.Sprintf("%s (%s)", spec.Name, spec.Units)
}
