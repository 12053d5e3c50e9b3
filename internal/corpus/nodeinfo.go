package corpus

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"tracerank/internal/errors"
)

// LineSpan is an inclusive range of source lines. A single line has Start == End.
type LineSpan struct {
	Start int
	End   int
}

// Contains reports whether line falls inside the span.
func (s LineSpan) Contains(line int) bool {
	return line >= s.Start && line <= s.End
}

// Lines expands the span into its individual lines.
func (s LineSpan) Lines() []int {
	if s.End < s.Start {
		return nil
	}
	out := make([]int, 0, s.End-s.Start+1)
	for l := s.Start; l <= s.End; l++ {
		out = append(out, l)
	}
	return out
}

func (s LineSpan) String() string {
	if s.Start == s.End {
		return strconv.Itoa(s.Start)
	}
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Node is one instrumented program location.
type Node struct {
	ID        int
	File      string
	Line      LineSpan
	Column    int
	Scope     string
	InlinedAt string
}

// NodeTable maps node ids to their source locations.
type NodeTable struct {
	nodes map[int]*Node
}

// Len is the number of nodes in the table.
func (t *NodeTable) Len() int { return len(t.nodes) }

// Get returns the node with the given id.
func (t *NodeTable) Get(id int) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// IDs returns every node id in ascending order.
func (t *NodeTable) IDs() []int {
	ids := make([]int, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ParseNodeTable reads lines of the form
//
//	<id> = (<file>; <line>; <col>; <scope>; <inlinedAt>)
//
// where <line> is an integer or a two-integer tuple.
func ParseNodeTable(r io.Reader, source string) (*NodeTable, error) {
	table := &NodeTable{nodes: make(map[int]*Node)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		n, err := parseNode(raw)
		if err != nil {
			return nil, errors.Malformed(source, lineNo, "invalid node record", err)
		}
		if _, dup := table.nodes[n.ID]; dup {
			return nil, errors.Malformed(source, lineNo, fmt.Sprintf("duplicate node id %d", n.ID), nil)
		}
		table.nodes[n.ID] = n
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New(errors.IOError, "cannot read "+source, err)
	}
	return table, nil
}

// LoadNodeTable reads a node-info file from disk.
func LoadNodeTable(path string) (*NodeTable, error) {
	rc, err := OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseNodeTable(rc, path)
}

func parseNode(raw string) (*Node, error) {
	idText, detail, ok := strings.Cut(raw, " = ")
	if !ok {
		return nil, fmt.Errorf("missing ' = ' separator")
	}
	id, err := strconv.Atoi(strings.TrimSpace(idText))
	if err != nil {
		return nil, fmt.Errorf("node id %q is not an integer", idText)
	}

	detail = strings.TrimSpace(detail)
	if len(detail) >= 2 {
		if (detail[0] == '(' && detail[len(detail)-1] == ')') ||
			(detail[0] == '[' && detail[len(detail)-1] == ']') {
			detail = detail[1 : len(detail)-1]
		}
	}
	fields := strings.SplitN(detail, "; ", 5)
	if len(fields) != 5 {
		return nil, fmt.Errorf("expected 5 fields separated by '; ', got %d", len(fields))
	}

	span, err := parseSpan(fields[1])
	if err != nil {
		return nil, err
	}
	col, err := ParseLiteral(fields[2])
	if err != nil {
		return nil, fmt.Errorf("column: %w", err)
	}
	if col.Kind != KindInt {
		return nil, fmt.Errorf("column must be an integer, got %s", col.Kind)
	}

	return &Node{
		ID:        id,
		File:      fields[0],
		Line:      span,
		Column:    col.Int,
		Scope:     fields[3],
		InlinedAt: fields[4],
	}, nil
}

func parseSpan(text string) (LineSpan, error) {
	v, err := ParseLiteral(text)
	if err != nil {
		return LineSpan{}, fmt.Errorf("line: %w", err)
	}
	if v.Kind == KindInt {
		return LineSpan{Start: v.Int, End: v.Int}, nil
	}
	ints, err := v.Ints()
	if err != nil || len(ints) != 2 {
		return LineSpan{}, fmt.Errorf("line must be an integer or a (start, end) pair")
	}
	if ints[1] < ints[0] {
		return LineSpan{}, fmt.Errorf("line interval (%d, %d) is reversed", ints[0], ints[1])
	}
	return LineSpan{Start: ints[0], End: ints[1]}, nil
}
