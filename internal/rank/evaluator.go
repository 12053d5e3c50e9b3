package rank

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tracerank/internal/corpus"
	"tracerank/internal/logging"
	"tracerank/internal/search"
)

// Location is one source line a candidate member maps to.
type Location struct {
	File string
	Line int
}

func (l Location) String() string { return fmt.Sprintf("%s:%d", l.File, l.Line) }

// Evaluator maps candidates to source lines and tests them against the faulty lines.
type Evaluator struct {
	nodes   *corpus.NodeTable
	targets map[int]struct{}
	logger  *logging.Logger
}

// NewEvaluator creates an evaluator for the given faulty lines.
func NewEvaluator(nodes *corpus.NodeTable, faultyLines []int, logger *logging.Logger) *Evaluator {
	targets := make(map[int]struct{}, len(faultyLines))
	for _, l := range faultyLines {
		targets[l] = struct{}{}
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Evaluator{nodes: nodes, targets: targets, logger: logger}
}

// Locations maps each member's source node to the lines it spans, expanding
// intervals inclusively. Members with no node record are skipped.
func (ev *Evaluator) Locations(members []corpus.Element) []Location {
	seen := make(map[Location]struct{})
	var out []Location
	for _, m := range members {
		n, ok := ev.nodes.Get(m.From)
		if !ok {
			continue
		}
		for _, line := range n.Line.Lines() {
			loc := Location{File: n.File, Line: line}
			if _, dup := seen[loc]; dup {
				continue
			}
			seen[loc] = struct{}{}
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// Matches reports whether any mapped line of members is a faulty line.
func (ev *Evaluator) Matches(members []corpus.Element) bool {
	for _, m := range members {
		n, ok := ev.nodes.Get(m.From)
		if !ok {
			continue
		}
		for t := range ev.targets {
			if n.Line.Contains(t) {
				return true
			}
		}
	}
	return false
}

// Setup describes the version being evaluated.
type Setup struct {
	Fault corpus.Fault
	// Tolerance is the number of terminal emissions examined.
	Tolerance int
}

// Searcher produces terminal candidates in rank order.
type Searcher interface {
	Run(ctx context.Context, emit func(search.Emission) bool) (search.Result, error)
}

// Evaluate drives the searcher until the first matching emission or until
// Tolerance emissions were examined.
func (ev *Evaluator) Evaluate(ctx context.Context, s Searcher, setup Setup) (*Outcome, error) {
	start := time.Now()
	out := &Outcome{
		Version:     setup.Fault.Version,
		FaultyLines: setup.Fault.Lines,
		Status:      StatusExceeded,
		Tolerance:   setup.Tolerance,
		TotalNodes:  ev.nodes.Len(),
	}

	res, err := s.Run(ctx, func(em search.Emission) bool {
		out.Examined = em.Rank
		members := em.Candidate.Members
		if ev.Matches(members) {
			out.Status = StatusFound
			out.Rank = em.Rank
			for _, m := range members {
				out.Winner = append(out.Winner, m.Key())
			}
			for _, loc := range ev.Locations(members) {
				out.Locations = append(out.Locations, loc.String())
			}
			ev.logMatch(em)
			return false
		}
		return setup.Tolerance <= 0 || em.Rank < setup.Tolerance
	})
	out.Duration = time.Since(start)
	if err != nil {
		return nil, err
	}

	ev.logger.Debug("Version evaluated", map[string]interface{}{
		"version":  out.Version,
		"status":   string(out.Status),
		"rank":     out.Rank,
		"examined": out.Examined,
		"pops":     res.Pops,
	})
	return out, nil
}

func (ev *Evaluator) logMatch(em search.Emission) {
	if !ev.logger.Enabled(logging.DebugLevel) {
		return
	}
	for _, m := range em.Candidate.Members {
		n, ok := ev.nodes.Get(m.From)
		if !ok {
			continue
		}
		ev.logger.Debug("Matching member", map[string]interface{}{
			"rank":      em.Rank,
			"member":    m.Key(),
			"file":      n.File,
			"line":      n.Line.String(),
			"column":    n.Column,
			"scope":     n.Scope,
			"inlinedAt": n.InlinedAt,
		})
	}
}
