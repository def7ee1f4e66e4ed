// Package orderedset provides a string set that remembers first-seen
// insertion order, for dedup-while-preserving-order situations like
// building url slug candidate lists.
package orderedset

type Set struct {
	members map[string]struct{}
	order   []string
}

func New(values ...string) *Set {
	s := &Set{members: map[string]struct{}{}}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add reports whether v was newly inserted.
func (s *Set) Add(v string) bool {
	_, exists := s.members[v]
	if exists {
		return false
	}
	s.members[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

func (s *Set) Has(v string) bool {
	_, exists := s.members[v]
	return exists
}

func (s *Set) Len() int {
	return len(s.order)
}

// Values returns the members in the order they were first added.
func (s *Set) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
