// Package tabio reads and writes the tabular data of a fuefit run: CSV, TXT
// (whitespace-separated) and JSON input tables, plus the fitted-model and
// merged-table output. Input bytes pass through binary detection and charset
// decoding before parsing.
package tabio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format names a tabular file format as accepted by --iformat/--oformat.
type Format string

const (
	FormatAuto Format = "AUTO"
	FormatCSV  Format = "CSV"
	FormatTXT  Format = "TXT"
	FormatXLS  Format = "XLS"
	FormatJSON Format = "JSON"
)

// ErrUnsupportedFormat indicates a format name outside the accepted set, or a
// named format this build cannot read (XLS).
var ErrUnsupportedFormat = errors.New("unsupported table format")

// ErrBinaryData indicates input bytes that look like binary rather than text.
var ErrBinaryData = errors.New("input looks binary, not tabular text")

// ErrUnknownOption indicates a reader or writer KEY=VALUE option with an
// unrecognized key or an unparsable value.
var ErrUnknownOption = errors.New("unknown reader/writer option")

// ParseFormat resolves a format name case-insensitively. The empty string
// means AUTO.
func ParseFormat(name string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "AUTO":
		return FormatAuto, nil
	case "CSV":
		return FormatCSV, nil
	case "TXT":
		return FormatTXT, nil
	case "XLS":
		return FormatXLS, nil
	case "JSON":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (want AUTO, CSV, TXT, XLS or JSON)", ErrUnsupportedFormat, name)
	}
}

// DetectFormat resolves AUTO against the file extension. Standard input
// (path "-" or empty) defaults to CSV.
func DetectFormat(path string, format Format) Format {
	if format != FormatAuto {
		return format
	}
	if path == "" || path == "-" {
		return FormatCSV
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".txt", ".dat":
		return FormatTXT
	case ".json":
		return FormatJSON
	case ".xls", ".xlsx":
		return FormatXLS
	default:
		return FormatCSV
	}
}

// DetectOutputFormat resolves AUTO for the output side, where the natural
// default is the JSON model document rather than a CSV table.
func DetectOutputFormat(path string, format Format) Format {
	if format != FormatAuto {
		return format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".txt", ".dat":
		return FormatTXT
	case ".xls", ".xlsx":
		return FormatXLS
	default:
		return FormatJSON
	}
}
