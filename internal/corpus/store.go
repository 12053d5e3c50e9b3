package corpus

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"tracerank/internal/errors"
)

// maxLineBytes bounds a single trace line. Long-running programs produce
// data lines of several megabytes.
const maxLineBytes = 256 << 20

// Stats counts the distinct succeeding and failing patterns containing an element.
type Stats struct {
	Success int
	Failure int
}

// Total is the number of distinct patterns containing the element.
func (s Stats) Total() int { return s.Success + s.Failure }

// Frequency is Success/(Success+Failure), or 0 for an unobserved element.
func (s Stats) Frequency() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total())
}

// Store holds the deduplicated traces of one program version and the
// per-element statistics derived from them. It is read-only once built.
type Store struct {
	mode       Mode
	failing    []*Trace
	succeeding []*Trace
	order      []*Trace
	seen       [2]map[string]struct{}
	stats      map[Element]*Stats
	runs       [2]int
}

// NewStore returns an empty store for the given mode.
func NewStore(mode Mode) *Store {
	return &Store{
		mode:  mode,
		seen:  [2]map[string]struct{}{{}, {}},
		stats: make(map[Element]*Stats),
	}
}

// Add records one run. It reports whether the run introduced a new pattern;
// a repeated pattern only counts towards Runs.
func (s *Store) Add(nodes []int, outcome Outcome) bool {
	s.runs[outcome]++
	key := sequenceKey(nodes)
	if _, dup := s.seen[outcome][key]; dup {
		return false
	}
	s.seen[outcome][key] = struct{}{}

	t := newTrace(nodes, outcome, s.mode)
	if outcome == Failed {
		s.failing = append(s.failing, t)
	} else {
		s.succeeding = append(s.succeeding, t)
	}
	s.order = append(s.order, t)

	for e := range t.first {
		st, ok := s.stats[e]
		if !ok {
			st = &Stats{}
			s.stats[e] = st
		}
		if outcome == Failed {
			st.Failure++
		} else {
			st.Success++
		}
	}
	return true
}

// Mode is the unit of analysis the store was built for.
func (s *Store) Mode() Mode { return s.mode }

// Failing returns the distinct failing traces in first-appearance order.
func (s *Store) Failing() []*Trace { return s.failing }

// Succeeding returns the distinct succeeding traces in first-appearance order.
func (s *Store) Succeeding() []*Trace { return s.succeeding }

// Traces returns every distinct trace in first-appearance order.
func (s *Store) Traces() []*Trace { return s.order }

// Runs returns the number of runs read per outcome, duplicates included.
func (s *Store) Runs() (succeeded, failed int) {
	return s.runs[Succeeded], s.runs[Failed]
}

// Stats returns the counts for e; the zero Stats for an unobserved element.
func (s *Store) Stats(e Element) Stats {
	if st, ok := s.stats[e]; ok {
		return *st
	}
	return Stats{}
}

// Elements returns every observed element in sorted order.
func (s *Store) Elements() []Element {
	out := make([]Element, 0, len(s.stats))
	for e := range s.stats {
		out = append(out, e)
	}
	sortElements(out)
	return out
}

// FailingElements returns the elements occurring in at least one failing trace, sorted.
func (s *Store) FailingElements() []Element {
	out := make([]Element, 0)
	for e, st := range s.stats {
		if st.Failure > 0 {
			out = append(out, e)
		}
	}
	sortElements(out)
	return out
}

func sortElements(es []Element) {
	sort.Slice(es, func(i, j int) bool { return es[i].Compare(es[j]) < 0 })
}

// ReadTraces parses a trace file: a boolean marker line (true means the run
// failed) followed by a data line holding the node sequence, optionally
// prefixed by a comma. Blank lines are ignored. Any malformed record fails
// the whole file.
func ReadTraces(r io.Reader, source string, mode Mode) (*Store, error) {
	store := NewStore(mode)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		lineNo     int
		pending    bool
		outcome    Outcome
		markerLine int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if !pending {
			v, err := ParseLiteral(line)
			if err != nil {
				return nil, literalError(source, lineNo, "invalid trace marker", err)
			}
			failed, err := v.Truth()
			if err != nil {
				return nil, errors.Malformed(source, lineNo, "expected a trace marker (True or False)", err)
			}
			outcome = Succeeded
			if failed {
				outcome = Failed
			}
			pending = true
			markerLine = lineNo
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, ","))
		v, err := ParseLiteral(data)
		if err != nil {
			return nil, literalError(source, lineNo, "invalid trace data", err)
		}
		if v.Kind == KindBool {
			return nil, errors.Malformed(source, markerLine, "trace marker has no data line", nil)
		}
		nodes, err := v.Ints()
		if err != nil {
			return nil, errors.Malformed(source, lineNo, "trace data must be a sequence of node ids", err)
		}
		store.Add(nodes, outcome)
		pending = false
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New(errors.IOError, "cannot read "+source, err)
	}
	if pending {
		return nil, errors.Malformed(source, markerLine, "trace marker has no data line", nil)
	}
	return store, nil
}

// LoadTraces reads a trace file from disk, decompressing it if needed.
func LoadTraces(path string, mode Mode) (*Store, error) {
	rc, err := OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadTraces(rc, path, mode)
}

// WriteTraces writes the distinct traces of s in the grammar ReadTraces accepts.
func WriteTraces(w io.Writer, s *Store) error {
	bw := bufio.NewWriter(w)
	for _, t := range s.order {
		marker := "False"
		if t.outcome == Failed {
			marker = "True"
		}
		if _, err := fmt.Fprintf(bw, "%s\n,%s\n", marker, formatTuple(t.nodes)); err != nil {
			return errors.New(errors.IOError, "cannot write traces", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.New(errors.IOError, "cannot write traces", err)
	}
	return nil
}

func formatTuple(nodes []int) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, n := range nodes {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d", n)
	}
	if len(nodes) == 1 {
		sb.WriteByte(',')
	}
	sb.WriteByte(')')
	return sb.String()
}

// literalError converts a literal parse failure into a located MALFORMED_INPUT error.
func literalError(source string, line int, msg string, err error) error {
	e := errors.Malformed(source, line, msg, err)
	if le, ok := err.(*LiteralError); ok {
		e.AtColumn(le.Column)
	}
	return e
}
