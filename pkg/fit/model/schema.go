package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// schemaJSON is the fixed schema every model document must satisfy after all
// overlays have been applied. Validation happens once, over the whole
// document; there is no partial acceptance.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "title": "fuefit engine model",
  "type": "object",
  "required": ["engine"],
  "properties": {
    "engine": {
      "type": "object",
      "required": ["fuel", "rpm_idle", "rpm_rated", "p_max"],
      "properties": {
        "fuel":      {"type": "string", "enum": ["PETROL", "DIESEL"]},
        "rpm_idle":  {"type": "number", "minimum": 0},
        "rpm_rated": {"type": "number", "minimum": 0, "exclusiveMinimum": true},
        "p_max":     {"type": "number", "minimum": 0, "exclusiveMinimum": true},
        "stroke":    {"type": "number", "minimum": 0, "exclusiveMinimum": true},
        "bore":      {"type": "number", "minimum": 0, "exclusiveMinimum": true},
        "capacity":  {"type": "number", "minimum": 0, "exclusiveMinimum": true},
        "turbo":     {"type": "boolean"},
        "fc_map_coeffs": {
          "type": "array",
          "items": {"type": "number"}
        }
      }
    },
    "params": {
      "type": "object",
      "properties": {
        "fuel": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "required": ["lhv"],
            "properties": {
              "lhv": {"type": "number", "minimum": 0, "exclusiveMinimum": true}
            }
          }
        }
      }
    }
  }
}`

// ErrValidation is the category error for a document that fails the schema.
var ErrValidation = errors.New("model validation failed")

// Violation is one schema violation: where, which constraint, and what the
// document actually held there.
type Violation struct {
	Path       string // pointer-style path into the document
	Constraint string // schema keyword that was violated
	Reason     string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Reason)
}

// ValidationError carries the complete list of schema violations, so callers
// can report all of them rather than only the first.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return "model validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validator checks model documents against the fixed schema. It is reusable
// across documents and safe for sequential reuse; validation itself never
// mutates the document.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the embedded schema. Compilation can only fail if
// the embedded schema itself is broken, which is a programming error.
func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("internal error: cannot compile model schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks the document and returns nil or a *ValidationError with
// every violation found.
func (v *Validator) Validate(d Document) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(map[string]any(d)))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, Violation{
			Path:       pointerPath(re.Field()),
			Constraint: re.Type(),
			Reason:     re.Description(),
		})
	}
	return &ValidationError{Violations: violations}
}

// pointerPath converts gojsonschema's dotted field notation into the
// pointer-style paths used everywhere else in this package.
func pointerPath(field string) string {
	if field == "" || field == "(root)" {
		return "/"
	}
	return "/" + strings.ReplaceAll(field, ".", "/")
}
