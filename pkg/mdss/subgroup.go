package mdss

import (
	"fmt"
	"sort"
	"strings"
)

// Subgroup is a conjunctive filter over discretized feature values. A row
// belongs to the subgroup when, for every constrained feature, the row's
// value is in the allowed set. Features absent from the map are
// unconstrained; the empty Subgroup matches every row.
type Subgroup map[string][]string

// Clone returns a deep copy with sorted value sets.
func (s Subgroup) Clone() Subgroup {
	c := make(Subgroup, len(s))
	for f, vals := range s {
		vs := make([]string, len(vals))
		copy(vs, vals)
		sort.Strings(vs)
		c[f] = vs
	}
	return c
}

// Size is the total number of feature-value constraints, the complexity
// the scan penalty scales with.
func (s Subgroup) Size() int {
	var n int
	for _, vals := range s {
		n += len(vals)
	}
	return n
}

// Features returns the constrained feature names in sorted order.
func (s Subgroup) Features() []string {
	names := make([]string, 0, len(s))
	for f := range s {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// Allows reports whether the subgroup admits the given value for a feature.
func (s Subgroup) Allows(feature, value string) bool {
	vals, ok := s[feature]
	if !ok {
		return true
	}
	for _, v := range vals {
		if v == value {
			return true
		}
	}
	return false
}

func (s Subgroup) String() string {
	if len(s) == 0 {
		return "(all rows)"
	}
	parts := make([]string, 0, len(s))
	for _, f := range s.Features() {
		vals := make([]string, len(s[f]))
		copy(vals, s[f])
		sort.Strings(vals)
		parts = append(parts, fmt.Sprintf("%s=[%s]", f, strings.Join(vals, ",")))
	}
	return strings.Join(parts, " ")
}
