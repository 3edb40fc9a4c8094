package tabio

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/gfon/fuefit/pkg/fit/token"
)

// ReadOptions are the -I reader pass-through options for one input file.
type ReadOptions struct {
	Sep       rune   // field separator for CSV (default ',')
	Encoding  string // charset label; empty means sniff
	SkipRows  int    // leading rows to discard before the header
	Comment   rune   // comment-line marker (default none for CSV, '#' for TXT)
	Thousands rune   // thousands separator stripped from numeric cells
}

// ParseReadOptions interprets the KEY=VALUE reader options of one file.
// Unknown keys and unparsable values are configuration errors.
func ParseReadOptions(pairs []token.KeyValue) (ReadOptions, error) {
	var ro ReadOptions
	for _, kv := range pairs {
		switch kv.Key {
		case "sep":
			r, err := singleRune(kv)
			if err != nil {
				return ReadOptions{}, err
			}
			ro.Sep = r
		case "encoding":
			ro.Encoding = kv.Value
		case "skiprows":
			n, err := strconv.Atoi(kv.Value)
			if err != nil || n < 0 {
				return ReadOptions{}, fmt.Errorf("%w: skiprows=%q is not a non-negative integer", ErrUnknownOption, kv.Value)
			}
			ro.SkipRows = n
		case "comment":
			r, err := singleRune(kv)
			if err != nil {
				return ReadOptions{}, err
			}
			ro.Comment = r
		case "thousands":
			r, err := singleRune(kv)
			if err != nil {
				return ReadOptions{}, err
			}
			ro.Thousands = r
		default:
			return ReadOptions{}, fmt.Errorf("%w: %q", ErrUnknownOption, kv.Key)
		}
	}
	return ro, nil
}

// WriteOptions are the -O writer pass-through options.
type WriteOptions struct {
	Indent int  // JSON indentation width (default 2)
	Sep    rune // field separator for CSV table output (default ',')
}

// ParseWriteOptions interprets the KEY=VALUE writer options.
func ParseWriteOptions(pairs []token.KeyValue) (WriteOptions, error) {
	wo := WriteOptions{Indent: 2}
	for _, kv := range pairs {
		switch kv.Key {
		case "indent":
			n, err := strconv.Atoi(kv.Value)
			if err != nil || n < 0 {
				return WriteOptions{}, fmt.Errorf("%w: indent=%q is not a non-negative integer", ErrUnknownOption, kv.Value)
			}
			wo.Indent = n
		case "sep":
			r, err := singleRune(kv)
			if err != nil {
				return WriteOptions{}, err
			}
			wo.Sep = r
		default:
			return WriteOptions{}, fmt.Errorf("%w: %q", ErrUnknownOption, kv.Key)
		}
	}
	return wo, nil
}

func singleRune(kv token.KeyValue) (rune, error) {
	if utf8.RuneCountInString(kv.Value) != 1 {
		return 0, fmt.Errorf("%w: %s=%q must be a single character", ErrUnknownOption, kv.Key, kv.Value)
	}
	r, _ := utf8.DecodeRuneInString(kv.Value)
	return r, nil
}
