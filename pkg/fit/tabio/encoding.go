package tabio

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

const (
	// checkLen is the buffer size used for null byte checks.
	checkLen = 1024
	// Null byte threshold percentage to consider input binary.
	nullThreshold = 0.15
)

// looksBinary guards against reading spreadsheets or other binary blobs as
// text: a significant share of null bytes in the leading buffer means the
// data is not a text table.
func looksBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	limit := len(content)
	if limit > checkLen {
		limit = checkLen
	}
	nulls := bytes.Count(content[:limit], []byte{0x00})
	return float64(nulls)/float64(limit) > nullThreshold
}

// decodeText converts raw input bytes to UTF-8. A non-empty label (from the
// "encoding" reader option) selects the charset directly; otherwise the
// charset is sniffed, keeping the bytes untouched when sniffing is uncertain.
func decodeText(content []byte, label string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(content, "")
	if label != "" {
		lookup, canonical := charset.Lookup(label)
		if lookup == nil {
			return nil, fmt.Errorf("%w: encoding=%q is not a known charset", ErrUnknownOption, label)
		}
		enc, name, certain = lookup, canonical, true
	}
	if enc == nil || !certain {
		return content, nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(content), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("cannot decode input from %s: %w", name, err)
	}
	return decoded, nil
}
