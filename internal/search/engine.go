package search

import (
	"context"

	"tracerank/internal/config"
	"tracerank/internal/corpus"
	"tracerank/internal/cost"
	"tracerank/internal/logging"
)

// Options bounds and tunes a search.
type Options struct {
	// Tolerance stops the search after this many terminal emissions; 0 is unbounded.
	Tolerance int
	// MaxExpansions stops the search after this many non-terminal pops; 0 is unbounded.
	MaxExpansions int
	// MaxFrontier drops new candidates once the frontier holds this many.
	// 0 derives the limit from Tolerance (see FrontierLimit); negative is unbounded.
	MaxFrontier int
	// Bucket is config.BucketCommonElement or config.BucketCoarse.
	Bucket string
	// Dedupe pushes each distinct member set at most once.
	Dedupe bool
	Logger *logging.Logger
}

// OptionsFromConfig builds options from the search config. Tolerance is left
// for the caller, who knows the node count.
func OptionsFromConfig(s config.SearchConfig, logger *logging.Logger) Options {
	return Options{
		MaxExpansions: s.MaxExpansions,
		MaxFrontier:   s.MaxFrontier,
		Bucket:        s.Bucket,
		Dedupe:        s.Dedupe,
		Logger:        logger,
	}
}

// Emission is one terminal candidate with its 1-based rank.
type Emission struct {
	Rank      int
	Candidate *Candidate
}

// Result summarises a finished Run.
type Result struct {
	Emitted    int
	Pops       int
	Expansions int
	Pushed     int
	Dropped    int
	// FrontierLimit is the frontier bound in effect; 0 is unbounded.
	FrontierLimit int
	// PeakFrontier is the largest frontier size reached.
	PeakFrontier int
	// Exhausted is set when the frontier emptied.
	Exhausted bool
	// BudgetSpent is set when MaxExpansions was reached.
	BudgetSpent bool
	// Stopped is set when the emit callback asked to stop.
	Stopped bool
}

// Engine explores candidate sets over one store and cost model.
type Engine struct {
	store   *corpus.Store
	model   *cost.Model
	opts    Options
	failing []*corpus.Trace
	limit   int
	logger  *logging.Logger
}

// minFrontierLimit is the smallest derived frontier bound.
const minFrontierLimit = 1024

// FrontierLimit returns the frontier bound for opts over store. An explicit
// MaxFrontier wins. Otherwise each of the Tolerance emissions may hold one
// expansion of the widest failing trace; Tolerance 0 counts as the number of
// distinct elements.
func FrontierLimit(store *corpus.Store, opts Options) int {
	if opts.MaxFrontier > 0 {
		return opts.MaxFrontier
	}
	if opts.MaxFrontier < 0 {
		return 0
	}
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = len(store.Elements())
	}
	widest := 0
	for _, t := range store.Failing() {
		if n := len(t.Distinct()); n > widest {
			widest = n
		}
	}
	limit := tolerance * widest
	if limit < minFrontierLimit {
		limit = minFrontierLimit
	}
	return limit
}

// NewEngine creates an engine. The store and model must not change while it runs.
func NewEngine(store *corpus.Store, model *cost.Model, opts Options) *Engine {
	if opts.Bucket == "" {
		opts.Bucket = config.BucketCommonElement
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Engine{
		store:   store,
		model:   model,
		opts:    opts,
		failing: store.Failing(),
		limit:   FrontierLimit(store, opts),
		logger:  logger,
	}
}

// Model returns the cost model the engine scores with.
func (e *Engine) Model() *cost.Model { return e.model }

// runner holds the state of one Run call.
type runner struct {
	*Engine
	pq     frontier
	seen   map[string]struct{}
	result Result
}

// Run seeds the frontier with one singleton per element of a failing trace
// and pops until emit returns false, Tolerance terminals were emitted, the
// expansion budget is spent or the frontier is empty. Ranks count terminal
// emissions only. Context cancellation is checked between pops.
//
// A failing trace with no elements can never be covered; Run then reports
// Exhausted without searching.
func (e *Engine) Run(ctx context.Context, emit func(Emission) bool) (Result, error) {
	r := &runner{Engine: e, seen: make(map[string]struct{})}
	r.result.FrontierLimit = e.limit

	if i := emptyFailingTrace(e.failing); i >= 0 {
		e.logger.Warn("Failing trace has no elements, nothing can cover it", map[string]interface{}{
			"trace": i,
		})
		r.result.Exhausted = true
		return r.result, nil
	}
	r.seed()

	for {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		if r.pq.Len() == 0 {
			r.result.Exhausted = true
			break
		}

		c := r.pq.pop()
		r.result.Pops++

		if c.Terminal() {
			r.result.Emitted++
			r.logEmission(c)
			if !emit(Emission{Rank: r.result.Emitted, Candidate: c}) {
				r.result.Stopped = true
				break
			}
			if e.opts.Tolerance > 0 && r.result.Emitted >= e.opts.Tolerance {
				break
			}
			continue
		}

		if e.opts.MaxExpansions > 0 && r.result.Expansions >= e.opts.MaxExpansions {
			r.result.BudgetSpent = true
			break
		}
		r.result.Expansions++
		r.expand(c)
	}

	e.logger.Debug("Search finished", map[string]interface{}{
		"emitted":    r.result.Emitted,
		"pops":       r.result.Pops,
		"expansions": r.result.Expansions,
		"pushed":     r.result.Pushed,
		"dropped":    r.result.Dropped,
		"peak":       r.result.PeakFrontier,
		"exhausted":  r.result.Exhausted,
	})
	return r.result, nil
}

func (r *runner) seed() {
	all := make([]int, len(r.failing))
	for i := range all {
		all[i] = i
	}
	for _, el := range r.store.FailingElements() {
		members := []corpus.Element{el}
		r.push(members, r.model.Extend(0, el), filterRemaining(r.failing, all, el))
	}
}

// expand pushes c plus each element of each failing trace c does not cover.
// Such elements are never members of c.
func (r *runner) expand(c *Candidate) {
	elements := uncoveredElements(r.failing, c.Remaining)
	for i, el := range elements {
		if r.full() {
			r.result.Dropped += len(elements) - i
			return
		}
		members := c.with(el)
		r.push(members, r.model.Extend(c.G, el), filterRemaining(r.failing, c.Remaining, el))
	}
}

func (r *runner) full() bool {
	return r.limit > 0 && r.pq.Len() >= r.limit
}

// push adds a candidate unless its member set was seen or the frontier is
// full. Dropped candidates are not marked seen, so a later expansion may
// offer them again once there is room.
func (r *runner) push(members []corpus.Element, g float64, remaining []int) {
	if r.full() {
		r.result.Dropped++
		return
	}
	key := membersKey(members)
	if r.opts.Dedupe {
		if _, ok := r.seen[key]; ok {
			return
		}
		r.seen[key] = struct{}{}
	}
	r.pq.push(&Candidate{
		Members:   members,
		G:         g,
		H:         r.bucket(remaining),
		Remaining: remaining,
		Key:       key,
	})
	r.result.Pushed++
	if n := r.pq.Len(); n > r.result.PeakFrontier {
		r.result.PeakFrontier = n
	}
}

// emptyFailingTrace returns the index of a failing trace with no elements, or -1.
func emptyFailingTrace(failing []*corpus.Trace) int {
	for i, t := range failing {
		if t.Len() == 0 {
			return i
		}
	}
	return -1
}

// bucket classifies the failing traces still to cover.
func (r *runner) bucket(remaining []int) int {
	if len(remaining) == 0 {
		return HCovered
	}
	if r.opts.Bucket == config.BucketCoarse {
		return HMany
	}
	if shareElement(r.failing, remaining) {
		return HShared
	}
	return HMany
}

func (r *runner) logEmission(c *Candidate) {
	if !r.logger.Enabled(logging.DebugLevel) {
		return
	}
	var c1, c2, c3 float64
	for _, m := range c.Members {
		t := r.model.Terms(m)
		c1 += t.C1
		c2 += t.C2
		c3 += t.C3
	}
	r.logger.Debug("Terminal candidate", map[string]interface{}{
		"rank":    r.result.Emitted,
		"h":       c.H,
		"g":       c.G,
		"c1":      c1,
		"c2":      c2,
		"c3":      c3,
		"members": c.Key,
	})
}

// filterRemaining keeps the traces of remaining that do not contain el.
func filterRemaining(failing []*corpus.Trace, remaining []int, el corpus.Element) []int {
	out := make([]int, 0, len(remaining))
	for _, i := range remaining {
		if !failing[i].Contains(el) {
			out = append(out, i)
		}
	}
	return out
}

// uncoveredElements is the sorted union of the elements of the remaining traces.
func uncoveredElements(failing []*corpus.Trace, remaining []int) []corpus.Element {
	set := make(map[corpus.Element]struct{})
	for _, i := range remaining {
		for _, el := range failing[i].Elements() {
			set[el] = struct{}{}
		}
	}
	out := make([]corpus.Element, 0, len(set))
	for el := range set {
		out = append(out, el)
	}
	sortElements(out)
	return out
}

// shareElement reports whether one element occurs in every remaining trace.
func shareElement(failing []*corpus.Trace, remaining []int) bool {
	smallest := failing[remaining[0]]
	for _, i := range remaining[1:] {
		if failing[i].Len() < smallest.Len() {
			smallest = failing[i]
		}
	}
	for _, el := range smallest.Elements() {
		shared := true
		for _, i := range remaining {
			if !failing[i].Contains(el) {
				shared = false
				break
			}
		}
		if shared {
			return true
		}
	}
	return false
}
