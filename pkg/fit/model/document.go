// Package model holds the engine model document: its defaults, the
// path-addressed overlay engine that merges user overrides onto it, and the
// JSON-schema validator that checks the final document as a whole.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Document is the nested engine model tree. Branch nodes are
// map[string]any or []any; leaves are scalars.
type Document map[string]any

// Clone returns a deep copy of the document. Overlays mutate the document in
// place, so callers that need the pristine defaults must clone first.
func (d Document) Clone() Document {
	return Document(cloneValue(map[string]any(d)).(map[string]any))
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// ErrPathResolution is the category error for a pointer that cannot be
// resolved against the document.
var ErrPathResolution = errors.New("model path cannot be resolved")

// PathError reports the pointer and the segment at which resolution failed.
type PathError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("cannot resolve model path %q: %s at segment %q", e.Path, e.Reason, e.Segment)
}

func (e *PathError) Unwrap() error { return ErrPathResolution }

// Pointer is a parsed JSON Pointer (RFC 6901). The empty pointer addresses
// the whole document.
type Pointer struct {
	raw      string
	segments []string
}

// ParsePointer parses a JSON Pointer string. Non-empty pointers must start
// with '/'; '~1' and '~0' unescape to '/' and '~'.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{raw: s}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return Pointer{}, &PathError{Path: s, Segment: s, Reason: "pointer must start with '/'"}
	}
	parts := strings.Split(s[1:], "/")
	segments := make([]string, len(parts))
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		p = strings.ReplaceAll(p, "~0", "~")
		segments[i] = p
	}
	return Pointer{raw: s, segments: segments}, nil
}

func (p Pointer) String() string { return p.raw }

// IsRoot reports whether the pointer addresses the whole document.
func (p Pointer) IsRoot() bool { return len(p.segments) == 0 }

// Resolve walks the pointer and returns the addressed value. Resolution is
// read-only; a missing key, an out-of-range index or a scalar in the middle
// of the path yields a PathError naming the failing segment.
func (d Document) Resolve(p Pointer) (any, error) {
	cur := any(map[string]any(d))
	for _, seg := range p.segments {
		next, err := step(cur, seg, p.raw)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Set writes value at the pointer using pointer-set semantics: every
// intermediate container must already exist in the document. Writing through
// a missing container or past the end of an array fails with a PathError.
func (d Document) Set(p Pointer, value any) error {
	if p.IsRoot() {
		return &PathError{Path: p.raw, Segment: "", Reason: "cannot replace the document root"}
	}
	cur := any(map[string]any(d))
	for _, seg := range p.segments[:len(p.segments)-1] {
		next, err := step(cur, seg, p.raw)
		if err != nil {
			return err
		}
		cur = next
	}

	last := p.segments[len(p.segments)-1]
	switch container := cur.(type) {
	case map[string]any:
		container[last] = value
		return nil
	case []any:
		idx, err := arrayIndex(container, last, p.raw)
		if err != nil {
			return err
		}
		container[idx] = value
		return nil
	default:
		return &PathError{Path: p.raw, Segment: last, Reason: fmt.Sprintf("cannot set a member of %T", cur)}
	}
}

func step(cur any, seg, path string) (any, error) {
	switch container := cur.(type) {
	case map[string]any:
		next, ok := container[seg]
		if !ok {
			return nil, &PathError{Path: path, Segment: seg, Reason: "no such member"}
		}
		return next, nil
	case []any:
		idx, err := arrayIndex(container, seg, path)
		if err != nil {
			return nil, err
		}
		return container[idx], nil
	default:
		return nil, &PathError{Path: path, Segment: seg, Reason: fmt.Sprintf("cannot descend into %T", cur)}
	}
}

func arrayIndex(arr []any, seg, path string) (int, error) {
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, &PathError{Path: path, Segment: seg, Reason: "not an array index"}
	}
	if idx < 0 || idx >= len(arr) {
		return 0, &PathError{Path: path, Segment: seg, Reason: fmt.Sprintf("array index out of range [0,%d)", len(arr))}
	}
	return idx, nil
}
