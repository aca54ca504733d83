package hashtable

import "github.com/zeroipc/zeroipc/table"

// Set is Map[T, struct{}] with value-less operators.
type Set[T comparable] struct {
	m *Map[T, struct{}]
}

// CreateSet allocates a Set with room for `capacity` elements.
func CreateSet[T comparable](t *table.Table, name string, capacity uint32) (*Set[T], error) {
	m, err := Create[T, struct{}](t, name, capacity)
	if err != nil {
		return nil, err
	}
	return &Set[T]{m: m}, nil
}

// OpenSet attaches to an existing Set by name.
func OpenSet[T comparable](t *table.Table, name string) (*Set[T], error) {
	m, err := Open[T, struct{}](t, name)
	if err != nil {
		return nil, err
	}
	return &Set[T]{m: m}, nil
}

// Insert adds v, returning false if it was already present (idempotent).
func (s *Set[T]) Insert(v T) bool {
	if _, ok := s.m.Find(v); ok {
		return false
	}
	_ = s.m.Insert(v, struct{}{})
	return true
}

// Contains reports whether v is a member.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.m.Find(v)
	return ok
}

// Erase removes v, returning whether it was present.
func (s *Set[T]) Erase(v T) bool { return s.m.Erase(v) }

// Size returns the number of members.
func (s *Set[T]) Size() uint32 { return s.m.Size() }

// Capacity returns the fixed slot count.
func (s *Set[T]) Capacity() uint32 { return s.m.Capacity() }

// Iterate visits every member; fn returning false stops iteration.
func (s *Set[T]) Iterate(fn func(T) bool) {
	s.m.Iterate(func(k T, _ struct{}) bool { return fn(k) })
}

// Union returns a new Set (backed by a freshly created table entry) holding
// every element of s and other.
func Union[T comparable](t *table.Table, name string, s, other *Set[T]) (*Set[T], error) {
	cap := s.Capacity() + other.Capacity()
	out, err := CreateSet[T](t, name, cap)
	if err != nil {
		return nil, err
	}
	s.Iterate(func(v T) bool { out.Insert(v); return true })
	other.Iterate(func(v T) bool { out.Insert(v); return true })
	return out, nil
}

// Intersection returns a new Set holding elements present in both s and other.
func Intersection[T comparable](t *table.Table, name string, s, other *Set[T]) (*Set[T], error) {
	out, err := CreateSet[T](t, name, s.Capacity())
	if err != nil {
		return nil, err
	}
	s.Iterate(func(v T) bool {
		if other.Contains(v) {
			out.Insert(v)
		}
		return true
	})
	return out, nil
}

// Difference returns a new Set holding elements of s not present in other.
func Difference[T comparable](t *table.Table, name string, s, other *Set[T]) (*Set[T], error) {
	out, err := CreateSet[T](t, name, s.Capacity())
	if err != nil {
		return nil, err
	}
	s.Iterate(func(v T) bool {
		if !other.Contains(v) {
			out.Insert(v)
		}
		return true
	})
	return out, nil
}

// IsSubsetOf reports whether every element of s is also in other.
func (s *Set[T]) IsSubsetOf(other *Set[T]) bool {
	result := true
	s.Iterate(func(v T) bool {
		if !other.Contains(v) {
			result = false
			return false
		}
		return true
	})
	return result
}

// IsDisjointFrom reports whether s and other share no elements.
func (s *Set[T]) IsDisjointFrom(other *Set[T]) bool {
	disjoint := true
	s.Iterate(func(v T) bool {
		if other.Contains(v) {
			disjoint = false
			return false
		}
		return true
	})
	return disjoint
}
