// internal/form/value.go
//
// Cadastro – Forms subsystem: field values and snapshots.
//
// Context
//   A Snapshot maps field name → Value.  A Value is either a single-line
//   text (free text, enumerated codes, radio choices) or a set of strings
//   (checkbox groups).  Snapshots are plain data: they hold no reference to
//   the coordinator that produced them and are safe to log or JSON-encode.
//
//------------------------------------------------------------------------------

package form

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Kind discriminates the two value shapes a field can hold.
type Kind int

const (
	KindText Kind = iota // single string
	KindSet              // ordered set of strings
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSet:
		return "set"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one field's content.  The zero value is an empty text.
type Value struct {
	kind Kind
	text string
	set  *Set
}

// Text builds a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Items builds a set value; duplicates collapse.
func Items(members ...string) Value { return Value{kind: KindSet, set: NewSet(members...)} }

// Kind reports the value shape.
func (v Value) Kind() Kind { return v.kind }

// String returns the text content.  Set values return "".
func (v Value) String() string { return v.text }

// Members returns the set content in insertion order.  Text values return
// an empty slice.
func (v Value) Members() []string { return v.set.Items() }

// Empty reports whether the value carries no content.
func (v Value) Empty() bool {
	if v.kind == KindSet {
		return v.set.Len() == 0
	}
	return v.text == ""
}

// Equal compares kind and content.  go-cmp picks this up automatically.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindSet {
		return slices.Equal(v.Members(), o.Members())
	}
	return v.text == o.text
}

func (v Value) clone() Value {
	if v.kind == KindSet {
		return Value{kind: KindSet, set: v.set.Clone()}
	}
	return v
}

// MarshalJSON writes text as a JSON string and sets as a JSON array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindSet {
		return json.Marshal(v.Members())
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Text(s)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("value must be a string or an array of strings: %w", err)
	}
	*v = Items(arr...)
	return nil
}

// Snapshot is the full set of field values at a point in time.
type Snapshot map[string]Value

// Clone returns a deep copy so callers cannot mutate coordinator state.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v.clone()
	}
	return out
}

// Text returns the text of field name or "".
func (s Snapshot) Text(name string) string { return s[name].String() }

// Members returns the members of set field name, never nil.
func (s Snapshot) Members(name string) []string { return s[name].Members() }
