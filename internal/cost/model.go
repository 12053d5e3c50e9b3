package cost

import (
	"math"

	"tracerank/internal/config"
	"tracerank/internal/corpus"
)

// Terms is the cost breakdown of one element.
type Terms struct {
	C1 float64 // prior cost of naming the element at all
	C2 float64 // evidence from succeeding traces
	C3 float64 // evidence from failing traces
}

// Sum is the element's contribution to g.
func (t Terms) Sum() float64 { return t.C1 + t.C2 + t.C3 }

// Options configures which terms contribute and their constants.
type Options struct {
	PriorP1        float64
	Epsilon        float64
	IncludePrior   bool
	IncludeSuccess bool
	IncludeFailure bool
}

// OptionsFromConfig extracts model options from the analysis config.
func OptionsFromConfig(a config.AnalysisConfig) Options {
	return Options{
		PriorP1:        a.PriorP1,
		Epsilon:        a.Epsilon,
		IncludePrior:   a.IncludePrior,
		IncludeSuccess: a.IncludeSuccess,
		IncludeFailure: a.IncludeFailure,
	}
}

// Model computes g = c1*m + sum(c2) + sum(c3) for candidate sets.
// Terms are cached per element; a Model is not safe for concurrent use.
type Model struct {
	strategy Strategy
	opts     Options
	c1       float64
	cache    map[corpus.Element]Terms
}

// NewModel creates a model over the given strategy.
func NewModel(s Strategy, opts Options) *Model {
	m := &Model{
		strategy: s,
		opts:     opts,
		cache:    make(map[corpus.Element]Terms),
	}
	if opts.IncludePrior {
		m.c1 = negLog(opts.PriorP1)
	}
	return m
}

// Strategy returns the p2 strategy in use.
func (m *Model) Strategy() Strategy { return m.strategy }

// Terms returns the cost breakdown of e.
func (m *Model) Terms(e corpus.Element) Terms {
	if t, ok := m.cache[e]; ok {
		return t
	}
	p2 := m.strategy.P2(e)
	t := Terms{C1: m.c1}
	if m.opts.IncludeSuccess {
		t.C2 = negLog(p2 + m.opts.Epsilon)
	}
	if m.opts.IncludeFailure {
		t.C3 = negLog(1 - p2 + m.opts.Epsilon)
	}
	m.cache[e] = t
	return t
}

// Cost computes g for members from scratch.
func (m *Model) Cost(members []corpus.Element) float64 {
	g := 0.0
	for _, e := range members {
		g += m.Terms(e).Sum()
	}
	return g
}

// Extend returns the cost of a set of cost g after adding e.
func (m *Model) Extend(g float64, e corpus.Element) float64 {
	return g + m.Terms(e).Sum()
}

// negLog is -log(x) clamped at zero. Non-positive x yields +Inf rather than NaN.
func negLog(x float64) float64 {
	if x <= 0 {
		return math.Inf(1)
	}
	v := -math.Log(x)
	if v < 0 {
		return 0
	}
	return v
}
