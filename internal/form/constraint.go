// internal/form/constraint.go
//
// Cadastro – Forms subsystem: constraint kinds and their interpreter.
//
// Context
//   A Constraint is one named rule attached to a field.  The set of kinds is
//   closed: Required, MinLength, and OneOf.  Check is the only place that
//   knows how each kind is evaluated, so adding a kind means adding a case
//   there and nowhere else.
//
//------------------------------------------------------------------------------

package form

import (
	"slices"
	"unicode/utf8"
)

// Constraint is a sealed sum type.  Only types in this package implement it.
type Constraint interface {
	// Message is the user-facing text shown when the rule fails.
	Message() string
	constraint()
}

// Required fails on empty text or an empty set.
type Required struct{ Msg string }

// MinLength fails when text holds fewer than N runes.  An empty value is
// measured like any other, so MinLength alone also rejects absent input.
// Runes, not UTF-16 units: "😀" has length 1 here where a browser counts 2.
type MinLength struct {
	N   int
	Msg string
}

// OneOf fails unless the text equals one of Values.
type OneOf struct {
	Values []string
	Msg    string
}

func (c Required) Message() string  { return c.Msg }
func (c MinLength) Message() string { return c.Msg }
func (c OneOf) Message() string     { return c.Msg }

func (Required) constraint()  {}
func (MinLength) constraint() {}
func (OneOf) constraint()     {}

// Check evaluates c against v and reports whether v satisfies it.
func Check(c Constraint, v Value) bool {
	switch c := c.(type) {
	case Required:
		return !v.Empty()
	case MinLength:
		return utf8.RuneCountInString(v.String()) >= c.N
	case OneOf:
		return slices.Contains(c.Values, v.String())
	default:
		return false
	}
}
