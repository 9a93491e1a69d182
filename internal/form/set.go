// internal/form/set.go
//
// Cadastro – Forms subsystem: ordered string set.
//
// Context
//   Multi-select inputs (checkbox groups) are backed by a Set rather than a
//   plain slice.  Membership is unique, insertion order is preserved for
//   display, and Toggle is idempotent in both directions.
//
//------------------------------------------------------------------------------

package form

// Set is an insertion-ordered collection of unique strings.  The zero value
// is an empty set ready for use.
type Set struct {
	items []string
	index map[string]int
}

// NewSet returns a Set holding items in order, duplicates dropped.
func NewSet(items ...string) *Set {
	s := &Set{}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts member and reports whether the set changed.
func (s *Set) Add(member string) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[member]; ok {
		return false
	}
	s.index[member] = len(s.items)
	s.items = append(s.items, member)
	return true
}

// Remove deletes member and reports whether the set changed.
func (s *Set) Remove(member string) bool {
	i, ok := s.index[member]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, member)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

// Toggle adds member when included is true and removes it otherwise.
func (s *Set) Toggle(member string, included bool) bool {
	if included {
		return s.Add(member)
	}
	return s.Remove(member)
}

// Has reports membership.
func (s *Set) Has(member string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[member]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the members in insertion order.  Never nil.
func (s *Set) Items() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	if s == nil {
		return NewSet()
	}
	return NewSet(s.items...)
}
