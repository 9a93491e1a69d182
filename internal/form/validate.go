// internal/form/validate.go
//
// Cadastro – Forms subsystem: validation errors and posted-data intake.
//
// Context
//   Browsers post application/x-www-form-urlencoded bodies.  This file turns
//   url.Values into a Snapshot shaped by the schema (checkbox groups arrive
//   as repeated keys) and runs the compiled Schema over it.  Failures are a
//   *ValidationError: a user error that callers re-render, never a 500.
//
// Workflow
//   •  SnapshotFromValues maps posted keys onto schema fields only.
//   •  IsValidationError / AsValidationError let handlers branch on the
//      error kind without type-asserting.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// FieldError describes a single validation failure so the template can
// render a field-level message.
type FieldError struct {
	Name    string `json:"field"`
	Message string `json:"message"`
}

// ValidationError wraps every FieldError of one validation run, in schema
// order, and satisfies the error interface.
type ValidationError struct{ Fields []FieldError }

func (ve *ValidationError) Error() string {
	names := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		names[i] = f.Name
	}
	return fmt.Sprintf("form validation failed: %s", strings.Join(names, ", "))
}

// Map returns field name → message.
func (ve *ValidationError) Map() map[string]string {
	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		out[f.Name] = f.Message
	}
	return out
}

// IsValidationError reports whether err came from a failed validation.
func IsValidationError(err error) bool {
	_, ok := AsValidationError(err)
	return ok
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// -----------------------------------------------------------------------------
// Posted data
// -----------------------------------------------------------------------------

// SnapshotFromValues builds a Snapshot holding only the schema's fields.
// Set fields collect every posted value; text fields take the first.
func SnapshotFromValues(s *Schema, posted url.Values) Snapshot {
	snap := s.Empty()
	for _, f := range s.Fields {
		raw, ok := posted[f.Name]
		if !ok || len(raw) == 0 {
			continue
		}
		if f.Kind == KindSet {
			snap[f.Name] = Items(raw...)
			continue
		}
		snap[f.Name] = Text(raw[0])
	}
	return snap
}
