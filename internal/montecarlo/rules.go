package montecarlo

import (
	"cmp"
	"slices"
)

// Label is satisfied by a tool's closed enumeration of behaviour rules.
type Label interface {
	cmp.Ordered
	String() string
}

// RuleSet collects fired rules without duplicates, keyed by identity.
type RuleSet[R Label] struct {
	seen  map[R]struct{}
	order []R
}

// NewRuleSet returns an empty set.
func NewRuleSet[R Label]() *RuleSet[R] {
	return &RuleSet[R]{seen: make(map[R]struct{})}
}

// Add records rules, ignoring ones already present.
func (s *RuleSet[R]) Add(rules ...R) {
	if s.seen == nil {
		s.seen = make(map[R]struct{})
	}
	for _, r := range rules {
		if _, ok := s.seen[r]; ok {
			continue
		}
		s.seen[r] = struct{}{}
		s.order = append(s.order, r)
	}
}

// Has reports whether r fired in any run.
func (s *RuleSet[R]) Has(r R) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[r]
	return ok
}

// Len returns the number of distinct rules.
func (s *RuleSet[R]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Sorted returns the rules in enumeration order. The result is never nil so
// an empty set encodes as a JSON array.
func (s *RuleSet[R]) Sorted() []R {
	out := make([]R, 0, s.Len())
	if s != nil {
		out = append(out, s.order...)
	}
	slices.Sort(out)
	return out
}

// Strings returns the display text of every rule in enumeration order.
func (s *RuleSet[R]) Strings() []string {
	rules := s.Sorted()
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.String())
	}
	return out
}
