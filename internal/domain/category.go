package domain

import (
	"encoding/json"
	"sort"
)

// CategorySet is an unordered set of category names.
// A nil set and an empty set both contain nothing.
type CategorySet map[string]struct{}

// NewCategorySet builds a set from values, dropping duplicates.
func NewCategorySet(values ...string) CategorySet {
	s := make(CategorySet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports exact membership of category.
func (s CategorySet) Contains(category string) bool {
	_, ok := s[category]
	return ok
}

// Add inserts category into the set. The set must be non-nil.
func (s CategorySet) Add(category string) {
	s[category] = struct{}{}
}

// Values returns the members in lexical order.
func (s CategorySet) Values() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Clone returns an independent copy; nil stays nil.
func (s CategorySet) Clone() CategorySet {
	if s == nil {
		return nil
	}
	c := make(CategorySet, len(s))
	for v := range s {
		c[v] = struct{}{}
	}
	return c
}

// MarshalJSON encodes the set as a sorted array.
func (s CategorySet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes an array, collapsing duplicates.
func (s *CategorySet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	if values == nil {
		*s = nil
		return nil
	}
	*s = NewCategorySet(values...)
	return nil
}
