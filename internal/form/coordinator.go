// internal/form/coordinator.go
//
// Cadastro – Forms subsystem: form state coordinator.
//
// Context
//   A Coordinator owns the live values of one form instance.  Input
//   handlers call SetField, SetItems, or Toggle; the submit path calls
//   Submit, which runs the Schema and hands the validated snapshot to a
//   caller-supplied Handler.  All mutation of form state goes through this
//   type, so an HTTP request or a terminal session simply holds a pointer.
//
// Field lifecycle
//   Untouched → Touched (first input) → Valid | Invalid.  Valid and Invalid
//   are not stored as states of their own; they are read from the most
//   recent validation result and recomputed on every run.  Once a submit has
//   been attempted, each later mutation revalidates the mutated field so
//   stale messages do not linger.
//
// Form lifecycle
//   Open until a Submit whose handler returns nil.  The form is then
//   Submitted and every mutation or further Submit returns ErrSubmitted.
//   Reset returns it to an empty, open state.
//
// A Coordinator is not safe for concurrent use.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors returned by the coordinator.
var (
	ErrSubmitted    = errors.New("form already submitted")
	ErrUnknownField = errors.New("unknown field")
	ErrWrongKind    = errors.New("field kind mismatch")
)

// Status is the per-field state reported by Coordinator.Status.
type Status int

const (
	Untouched Status = iota
	Touched
	Valid
	Invalid
)

func (s Status) String() string {
	switch s {
	case Untouched:
		return "untouched"
	case Touched:
		return "touched"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Handler receives the validated snapshot of a successful submit.  It is the
// pluggable collaborator behind "submit succeeded": log it, store it, post
// it.  Returning an error keeps the form open for another attempt.
type Handler func(ctx context.Context, data Snapshot) error

// Coordinator holds form values, touched flags, and the last validation
// result for one form instance.
type Coordinator struct {
	schema    *Schema
	values    Snapshot
	touched   map[string]bool
	results   map[string]string // field → message; "" means valid
	attempted bool
	submitted bool
}

// NewCoordinator returns a coordinator with every field empty and untouched.
func NewCoordinator(s *Schema) *Coordinator {
	c := &Coordinator{schema: s}
	c.Reset()
	return c
}

// Reset discards all values, flags, and results.
func (c *Coordinator) Reset() {
	c.values = c.schema.Empty()
	c.touched = make(map[string]bool)
	c.results = make(map[string]string)
	c.attempted = false
	c.submitted = false
}

// -----------------------------------------------------------------------------
// Mutation
// -----------------------------------------------------------------------------

// SetField replaces the value of text field name.
func (c *Coordinator) SetField(name, value string) error {
	if _, err := c.rule(name, KindText); err != nil {
		return err
	}
	c.values[name] = Text(value)
	c.touch(name)
	return nil
}

// SetItems replaces the whole content of set field name.
func (c *Coordinator) SetItems(name string, members ...string) error {
	if _, err := c.rule(name, KindSet); err != nil {
		return err
	}
	c.values[name] = Items(members...)
	c.touch(name)
	return nil
}

// Toggle adds member to set field name when included is true and removes
// it otherwise.  Repeating the same call is a no-op.
func (c *Coordinator) Toggle(name, member string, included bool) error {
	if _, err := c.rule(name, KindSet); err != nil {
		return err
	}
	cur := c.values[name]
	set := cur.set
	if set == nil {
		set = NewSet()
	}
	set.Toggle(member, included)
	c.values[name] = Value{kind: KindSet, set: set}
	c.touch(name)
	return nil
}

// Load replaces every schema field present in snap, coercing kinds, and
// marks those fields touched.  Keys the schema does not know are ignored.
func (c *Coordinator) Load(snap Snapshot) error {
	if c.submitted {
		return ErrSubmitted
	}
	for _, f := range c.schema.Fields {
		v, ok := snap[f.Name]
		if !ok {
			continue
		}
		c.values[f.Name] = coerce(f.Kind, v)
		c.touch(f.Name)
	}
	return nil
}

func (c *Coordinator) rule(name string, want Kind) (FieldRule, error) {
	if c.submitted {
		return FieldRule{}, ErrSubmitted
	}
	r, ok := c.schema.Rule(name)
	if !ok {
		return FieldRule{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if r.Kind != want {
		return FieldRule{}, fmt.Errorf("%w: %q is %s, not %s", ErrWrongKind, name, r.Kind, want)
	}
	return r, nil
}

func (c *Coordinator) touch(name string) {
	c.touched[name] = true
	if c.attempted {
		c.ValidateField(name)
	} else {
		delete(c.results, name)
	}
}

// -----------------------------------------------------------------------------
// Inspection
// -----------------------------------------------------------------------------

// Values returns a copy of the current snapshot.
func (c *Coordinator) Values() Snapshot { return c.values.Clone() }

// Value returns a copy of one field's current value.
func (c *Coordinator) Value(name string) Value { return c.values[name].clone() }

// Status reports the lifecycle state of field name.
func (c *Coordinator) Status(name string) Status {
	if msg, ok := c.results[name]; ok {
		if msg == "" {
			return Valid
		}
		return Invalid
	}
	if c.touched[name] {
		return Touched
	}
	return Untouched
}

// Errors returns field → message for fields that failed their latest
// validation.
func (c *Coordinator) Errors() map[string]string {
	out := make(map[string]string)
	for name, msg := range c.results {
		if msg != "" {
			out[name] = msg
		}
	}
	return out
}

// Submitted reports whether a submit has completed successfully.
func (c *Coordinator) Submitted() bool { return c.submitted }

// -----------------------------------------------------------------------------
// Validation and submit
// -----------------------------------------------------------------------------

// ValidateField validates field name on demand and reports whether it
// passed.  Unknown fields pass.
func (c *Coordinator) ValidateField(name string) bool {
	r, ok := c.schema.Rule(name)
	if !ok {
		return true
	}
	msg := c.schema.validateOne(r, c.values[name])
	c.results[name] = msg
	return msg == ""
}

// Validate runs the whole schema, records per-field results, and returns
// the validation error, if any.
func (c *Coordinator) Validate() (Snapshot, error) {
	clean, err := c.schema.Validate(c.values)
	for _, f := range c.schema.Fields {
		c.results[f.Name] = ""
	}
	if ve, ok := AsValidationError(err); ok {
		for _, fe := range ve.Fields {
			c.results[fe.Name] = fe.Message
		}
	}
	return clean, err
}

// Submit validates the form.  On failure it records the error map and
// returns the *ValidationError without calling h.  On success it calls h
// once with the validated snapshot and, if h returns nil, marks the form
// Submitted.  A nil h is treated as a handler that always succeeds.
func (c *Coordinator) Submit(ctx context.Context, h Handler) (Snapshot, error) {
	if c.submitted {
		return nil, ErrSubmitted
	}
	c.attempted = true

	clean, err := c.Validate()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h != nil {
		if err := h(ctx, clean.Clone()); err != nil {
			return nil, fmt.Errorf("form %s: success handler: %w", c.schema.ID, err)
		}
	}
	c.submitted = true
	return clean, nil
}
