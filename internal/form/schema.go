// internal/form/schema.go
//
// Cadastro – Forms subsystem: compiled validation schema.
//
// Context
//   A Schema is the typed, ready-to-run form of a FormDef (definition.go).
//   It lists every field in display order with its value Kind and the
//   constraints to evaluate.  Schemas are immutable after Compile and safe to
//   share between goroutines; coordinators (coordinator.go) hold a pointer.
//
//------------------------------------------------------------------------------

package form

import (
	"strings"
)

// FieldRule binds constraints to one field.  A rule with no constraints is
// an optional field.
type FieldRule struct {
	Name        string
	Kind        Kind
	Constraints []Constraint
}

// Schema is the compiled validator for one form.
type Schema struct {
	ID     string
	Fields []FieldRule
	// TrimSpace strips leading and trailing whitespace from text values
	// before constraints run, so "   " does not satisfy Required.
	TrimSpace bool

	byName map[string]int
}

// NewSchema builds a Schema and indexes its fields.  Later duplicates of a
// field name replace earlier ones.
func NewSchema(id string, trim bool, fields ...FieldRule) *Schema {
	s := &Schema{ID: id, TrimSpace: trim, byName: make(map[string]int, len(fields))}
	for _, f := range fields {
		if i, ok := s.byName[f.Name]; ok {
			s.Fields[i] = f
			continue
		}
		s.byName[f.Name] = len(s.Fields)
		s.Fields = append(s.Fields, f)
	}
	return s
}

// Rule returns the rule for name.
func (s *Schema) Rule(name string) (FieldRule, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldRule{}, false
	}
	return s.Fields[i], true
}

// Empty returns a snapshot holding the zero value of every field.
func (s *Schema) Empty() Snapshot {
	out := make(Snapshot, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = zeroValue(f.Kind)
	}
	return out
}

// Validate checks every field of in, every time.  On success it returns a
// normalised copy restricted to the schema's fields.  On failure it returns
// a *ValidationError carrying the first violated constraint per field.
func (s *Schema) Validate(in Snapshot) (Snapshot, error) {
	clean := make(Snapshot, len(s.Fields))
	var errs []FieldError

	for _, f := range s.Fields {
		v := s.normalize(f, in[f.Name])
		clean[f.Name] = v
		if msg, ok := firstViolation(f, v); !ok {
			errs = append(errs, FieldError{Name: f.Name, Message: msg})
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return clean, nil
}

// validateOne runs a single field's rule.  Empty message means valid.
func (s *Schema) validateOne(f FieldRule, v Value) string {
	msg, ok := firstViolation(f, s.normalize(f, v))
	if ok {
		return ""
	}
	return msg
}

func firstViolation(f FieldRule, v Value) (string, bool) {
	for _, c := range f.Constraints {
		if !Check(c, v) {
			return c.Message(), false
		}
	}
	return "", true
}

// normalize coerces v to the rule's kind and applies trimming.
func (s *Schema) normalize(f FieldRule, v Value) Value {
	v = coerce(f.Kind, v)
	if v.kind == KindText && s.TrimSpace {
		return Text(strings.TrimSpace(v.text))
	}
	return v
}

// coerce returns a copy of v shaped as kind.  A text given to a set field
// becomes a one-member set; a set given to a text field keeps its first
// member.
func coerce(kind Kind, v Value) Value {
	switch kind {
	case KindSet:
		if v.kind == KindSet {
			return v.clone()
		}
		if v.text == "" {
			return Items()
		}
		return Items(v.text)
	default:
		if v.kind == KindSet {
			m := v.Members()
			if len(m) == 0 {
				return Text("")
			}
			return Text(m[0])
		}
		return Text(v.text)
	}
}

func zeroValue(k Kind) Value {
	if k == KindSet {
		return Items()
	}
	return Text("")
}
