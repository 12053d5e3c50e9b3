package corpus

import (
	"fmt"
	"strconv"
	"strings"

	"tracerank/internal/config"
	"tracerank/internal/errors"
)

// Terminal marks the successor of the last node in an edge-mode trace.
const Terminal = -1

// Mode selects whether traces are analysed as nodes or as edges.
type Mode string

const (
	ModeNode Mode = config.UnitNode
	ModeEdge Mode = config.UnitEdge
)

// ParseMode converts a configured unit name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeNode:
		return ModeNode, nil
	case ModeEdge:
		return ModeEdge, nil
	default:
		return "", errors.Newf(errors.ConfigInvalid, "unknown analysis unit %q (want node or edge)", s)
	}
}

// Element is one analysis unit: a node, or an ordered pair of nodes.
// The zero To is meaningful only for edges.
type Element struct {
	From int
	To   int
	Edge bool
}

// NodeElement returns the element for a single node.
func NodeElement(n int) Element {
	return Element{From: n}
}

// EdgeElement returns the element for a transition between two nodes.
func EdgeElement(from, to int) Element {
	return Element{From: from, To: to, Edge: true}
}

// Nodes returns the node ids the element refers to, excluding Terminal.
func (e Element) Nodes() []int {
	if !e.Edge {
		return []int{e.From}
	}
	if e.To == Terminal {
		return []int{e.From}
	}
	return []int{e.From, e.To}
}

// Key is the canonical textual form used for tie-breaking and rank logs.
func (e Element) Key() string {
	if !e.Edge {
		return strconv.Itoa(e.From)
	}
	return fmt.Sprintf("%d->%d", e.From, e.To)
}

func (e Element) String() string { return e.Key() }

// Compare orders nodes by id and edges lexicographically by (From, To).
// Nodes sort before edges.
func (e Element) Compare(o Element) int {
	if e.Edge != o.Edge {
		if !e.Edge {
			return -1
		}
		return 1
	}
	if e.From != o.From {
		return compareInt(e.From, o.From)
	}
	return compareInt(e.To, o.To)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Elements converts a node sequence into the analysis units of the mode.
// In edge mode the final node pairs with Terminal.
func Elements(nodes []int, mode Mode) []Element {
	out := make([]Element, 0, len(nodes))
	if mode == ModeEdge {
		for i, n := range nodes {
			next := Terminal
			if i+1 < len(nodes) {
				next = nodes[i+1]
			}
			out = append(out, EdgeElement(n, next))
		}
		return out
	}
	for _, n := range nodes {
		out = append(out, NodeElement(n))
	}
	return out
}
