package keywords

import "strings"

// Set is a string set that remembers insertion order
type Set struct {
	order []string
	seen  map[string]struct{}
}

func NewSet(values ...string) *Set {
	s := &Set{seen: make(map[string]struct{}, len(values))}
	s.AddAll(values)
	return s
}

// Add ignores empty strings and values already present
func (s *Set) Add(value string) {
	if value == "" {
		return
	}
	if _, ok := s.seen[value]; ok {
		return
	}
	s.seen[value] = struct{}{}
	s.order = append(s.order, value)
}

func (s *Set) AddAll(values []string) {
	for _, v := range values {
		s.Add(v)
	}
}

func (s *Set) Contains(value string) bool {
	_, ok := s.seen[value]
	return ok
}

func (s *Set) Len() int {
	return len(s.order)
}

// Values returns a copy of the members in insertion order
func (s *Set) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Set) Join(sep string) string {
	return strings.Join(s.order, sep)
}
