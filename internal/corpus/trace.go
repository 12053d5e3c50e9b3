package corpus

import (
	"strconv"
	"strings"
)

// Outcome is the recorded result of a run.
type Outcome int

const (
	Succeeded Outcome = iota
	Failed
)

func (o Outcome) String() string {
	if o == Failed {
		return "failed"
	}
	return "succeeded"
}

// Trace is one distinct execution pattern.
type Trace struct {
	key      string
	outcome  Outcome
	nodes    []int
	elements []Element
	first    map[Element]int
}

func newTrace(nodes []int, outcome Outcome, mode Mode) *Trace {
	elems := Elements(nodes, mode)
	first := make(map[Element]int, len(elems))
	for i, e := range elems {
		if _, ok := first[e]; !ok {
			first[e] = i
		}
	}
	return &Trace{
		key:      sequenceKey(nodes),
		outcome:  outcome,
		nodes:    append([]int(nil), nodes...),
		elements: elems,
		first:    first,
	}
}

func sequenceKey(nodes []int) string {
	var sb strings.Builder
	for i, n := range nodes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// Key identifies the trace's node sequence.
func (t *Trace) Key() string { return t.key }

// Outcome reports whether the trace failed or succeeded.
func (t *Trace) Outcome() Outcome { return t.outcome }

// Nodes returns a copy of the recorded node sequence.
func (t *Trace) Nodes() []int { return append([]int(nil), t.nodes...) }

// Elements returns the trace's analysis units in order.
// The slice is shared and must not be modified.
func (t *Trace) Elements() []Element { return t.elements }

// Len is the length of the trace in elements.
func (t *Trace) Len() int { return len(t.elements) }

// Contains reports whether e occurs anywhere in the trace.
func (t *Trace) Contains(e Element) bool {
	_, ok := t.first[e]
	return ok
}

// FirstIndex returns the 0-based position of the first occurrence of e.
func (t *Trace) FirstIndex(e Element) (int, bool) {
	i, ok := t.first[e]
	return i, ok
}

// Distinct returns the set of elements occurring in the trace.
func (t *Trace) Distinct() map[Element]struct{} {
	out := make(map[Element]struct{}, len(t.first))
	for e := range t.first {
		out[e] = struct{}{}
	}
	return out
}
