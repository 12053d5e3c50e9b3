// Package search implements the best-first exploration of candidate sets.
//
// A candidate is a set of elements hypothesised to jointly explain every
// failing trace. Candidates are popped in (H, G, members) order; a candidate
// that intersects every failing trace is terminal and is emitted with the
// next rank. Non-terminal candidates are expanded by one element drawn from
// the failing traces they do not yet cover.
package search

import (
	"sort"
	"strings"

	"tracerank/internal/corpus"
)

// Heuristic buckets.
const (
	HCovered = 0 // every failing trace is intersected
	HShared  = 1 // the remaining failing traces share an element
	HMany    = 2 // at least two more elements are plausibly needed
)

// Candidate is an immutable candidate set. Expansion always builds a new one.
type Candidate struct {
	// Members is sorted by corpus.Element.Compare.
	Members []corpus.Element
	// G is the accumulated cost of the members.
	G float64
	// H is the heuristic bucket.
	H int
	// Remaining indexes the failing traces no member occurs in.
	Remaining []int
	// Key is the canonical serialisation of Members.
	Key string
}

// Terminal reports whether the candidate covers every failing trace.
func (c *Candidate) Terminal() bool { return len(c.Remaining) == 0 }

// Size is the number of members.
func (c *Candidate) Size() int { return len(c.Members) }

// Contains reports whether e is a member.
func (c *Candidate) Contains(e corpus.Element) bool {
	i := sort.Search(len(c.Members), func(i int) bool { return c.Members[i].Compare(e) >= 0 })
	return i < len(c.Members) && c.Members[i] == e
}

func (c *Candidate) String() string { return "{" + c.Key + "}" }

// with returns the members plus e, kept sorted.
func (c *Candidate) with(e corpus.Element) []corpus.Element {
	out := make([]corpus.Element, 0, len(c.Members)+1)
	inserted := false
	for _, m := range c.Members {
		if !inserted && e.Compare(m) < 0 {
			out = append(out, e)
			inserted = true
		}
		out = append(out, m)
	}
	if !inserted {
		out = append(out, e)
	}
	return out
}

func membersKey(members []corpus.Element) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = m.Key()
	}
	return strings.Join(parts, ",")
}

// less is the total pop order: H, then G, then members lexicographically.
func less(a, b *Candidate) bool {
	if a.H != b.H {
		return a.H < b.H
	}
	if a.G != b.G {
		return a.G < b.G
	}
	return compareMembers(a.Members, b.Members) < 0
}

func compareMembers(a, b []corpus.Element) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func sortElements(es []corpus.Element) {
	sort.Slice(es, func(i, j int) bool { return es[i].Compare(es[j]) < 0 })
}
