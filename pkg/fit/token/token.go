// Package token parses the two small argument grammars used on the fuefit
// command line: KEY=VALUE pairs (-I, -O, -M) and COLUMN_NAME [(UNITS)]
// column specifiers (--icolumns, --irenames).
//
// Both parsers are explicit character scanners rather than regular
// expressions so that rejections carry the offending text and offset.
package token

import (
	"errors"
	"fmt"
)

// ErrSyntax is the category error for any malformed token. Callers check it
// with errors.Is; the concrete *SyntaxError carries the diagnostic detail.
var ErrSyntax = errors.New("invalid token syntax")

// SyntaxError reports a token that does not match its grammar.
type SyntaxError struct {
	Input  string // the raw text as supplied
	Offset int    // byte offset into the trimmed input where scanning failed
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Reason, e.Offset, e.Input)
}

// Unwrap makes errors.Is(err, ErrSyntax) hold for every *SyntaxError.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// KeyValue is one KEY=VALUE argument. The value is the unparsed remainder
// after the first '='; it may be empty and may itself contain '='.
type KeyValue struct {
	Key   string
	Value string
}

// ColumnSpec is one COLUMN_NAME [(UNITS)] argument. Units is empty when the
// specifier carries no parenthesized unit suffix.
type ColumnSpec struct {
	Name  string
	Units string
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

func trim(s string) string {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

// ParseKeyValue parses text of the form KEY=VALUE. The key must start with a
// letter and continue with word characters; whitespace around the key, the
// '=' and the value is insignificant. The value keeps any embedded '='
// characters and may be empty.
func ParseKeyValue(text string) (KeyValue, error) {
	s := trim(text)
	if s == "" {
		return KeyValue{}, &SyntaxError{Input: text, Offset: 0, Reason: "not a KEY=VALUE pair: empty argument"}
	}
	if !isLetter(s[0]) {
		return KeyValue{}, &SyntaxError{Input: text, Offset: 0, Reason: "not a KEY=VALUE pair: key must start with a letter"}
	}
	i := 1
	for i < len(s) && isWordChar(s[i]) {
		i++
	}
	key := s[:i]
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i >= len(s) || s[i] != '=' {
		return KeyValue{}, &SyntaxError{Input: text, Offset: i, Reason: "not a KEY=VALUE pair: missing '='"}
	}
	i++ // consume '='
	return KeyValue{Key: key, Value: trim(s[i:])}, nil
}

// ParseColumnSpec parses text of the form COLUMN_NAME [(UNITS)]. The name is
// everything before an optional trailing parenthesized units group and must
// be non-empty after trimming. A '(' that does not open a well-formed
// trailing units group is a syntax error; a ')' inside the name is legal.
func ParseColumnSpec(text string) (ColumnSpec, error) {
	s := trim(text)
	if s == "" {
		return ColumnSpec{}, &SyntaxError{Input: text, Offset: 0, Reason: "not a COLUMN_SPEC: empty argument"}
	}

	open := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '(' {
			open = i
			break
		}
	}
	if open == -1 {
		return ColumnSpec{Name: s, Units: ""}, nil
	}
	if open == 0 {
		return ColumnSpec{}, &SyntaxError{Input: text, Offset: 0, Reason: "not a COLUMN_SPEC: missing column name before '('"}
	}

	name := trim(s[:open])
	if name == "" {
		return ColumnSpec{}, &SyntaxError{Input: text, Offset: 0, Reason: "not a COLUMN_SPEC: blank column name before '('"}
	}

	// The units group must close and must end the specifier.
	rest := s[open:]
	closing := -1
	for i := 1; i < len(rest); i++ {
		if rest[i] == ')' {
			closing = i
			break
		}
	}
	if closing == -1 {
		return ColumnSpec{}, &SyntaxError{Input: text, Offset: open, Reason: "not a COLUMN_SPEC: unclosed units group"}
	}
	if closing == 1 {
		return ColumnSpec{}, &SyntaxError{Input: text, Offset: open, Reason: "not a COLUMN_SPEC: empty units group"}
	}
	if closing != len(rest)-1 {
		return ColumnSpec{}, &SyntaxError{Input: text, Offset: open + closing + 1, Reason: "not a COLUMN_SPEC: trailing text after units group"}
	}

	return ColumnSpec{Name: name, Units: trim(rest[1:closing])}, nil
}
