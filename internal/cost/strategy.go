// Package cost turns per-element evidence into the additive cost the search
// minimises.
package cost

import (
	"strings"

	"tracerank/internal/config"
	"tracerank/internal/corpus"
	"tracerank/internal/errors"
)

// Strategy names accepted by NewStrategy.
const (
	NameConstant         = "const"
	NameFrequencySuccess = "freq-success"
	NameFrequencyFailure = "freq-failure"
	NamePositional       = "positional"
)

var aliases = map[string]string{
	"freq": NameFrequencySuccess,
	"loc":  NamePositional,
}

// Strategy estimates p2, the probability that an element is innocent.
type Strategy interface {
	Name() string
	P2(e corpus.Element) float64
}

// Params holds the tunables the strategies read.
type Params struct {
	ConstantP2        float64
	FrequencyEpsilon  float64
	PositionalDefault float64
}

// ParamsFromConfig extracts strategy parameters from the analysis config.
func ParamsFromConfig(a config.AnalysisConfig) Params {
	return Params{
		ConstantP2:        a.ConstantP2,
		FrequencyEpsilon:  a.FrequencyEpsilon,
		PositionalDefault: a.PositionalDefault,
	}
}

// CanonicalName resolves the short command-line aliases.
func CanonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// NewStrategy builds the strategy registered under name.
func NewStrategy(name string, store *corpus.Store, p Params) (Strategy, error) {
	switch CanonicalName(name) {
	case NameConstant:
		return Constant{K: p.ConstantP2}, nil
	case NameFrequencySuccess:
		return &FrequencySuccess{store: store, eps: p.FrequencyEpsilon}, nil
	case NameFrequencyFailure:
		return &FrequencyFailure{store: store, eps: p.FrequencyEpsilon}, nil
	case NamePositional:
		return NewPositional(store, p.PositionalDefault), nil
	default:
		return nil, errors.Newf(errors.ConfigInvalid, "unknown cost strategy %q", name)
	}
}

// Constant assigns the same p2 to every element.
type Constant struct {
	K float64
}

func (c Constant) Name() string { return NameConstant }

func (c Constant) P2(corpus.Element) float64 { return c.K }

// FrequencySuccess uses the smoothed share of succeeding patterns.
type FrequencySuccess struct {
	store *corpus.Store
	eps   float64
}

func (f *FrequencySuccess) Name() string { return NameFrequencySuccess }

func (f *FrequencySuccess) P2(e corpus.Element) float64 {
	st := f.store.Stats(e)
	return (float64(st.Success) + f.eps) / (float64(st.Total()) + 2*f.eps)
}

// FrequencyFailure uses the smoothed share of failing patterns.
type FrequencyFailure struct {
	store *corpus.Store
	eps   float64
}

func (f *FrequencyFailure) Name() string { return NameFrequencyFailure }

func (f *FrequencyFailure) P2(e corpus.Element) float64 {
	st := f.store.Stats(e)
	return (float64(st.Failure) + f.eps) / (float64(st.Total()) + 2*f.eps)
}

// Positional scores elements that appear early in succeeding traces as
// innocent. The weight of one trace is 0.75 - index/(2*len), with index the
// first occurrence; weights are averaged over the succeeding traces that
// contain the element.
type Positional struct {
	def     float64
	weights map[corpus.Element]float64
}

// NewPositional precomputes the averaged weights. def is returned for
// elements absent from every succeeding trace.
func NewPositional(store *corpus.Store, def float64) *Positional {
	sums := make(map[corpus.Element]float64)
	counts := make(map[corpus.Element]int)
	for _, tr := range store.Succeeding() {
		n := float64(2 * tr.Len())
		for e := range tr.Distinct() {
			idx, _ := tr.FirstIndex(e)
			sums[e] += 0.75 - float64(idx)/n
			counts[e]++
		}
	}

	weights := make(map[corpus.Element]float64, len(sums))
	for e, sum := range sums {
		weights[e] = sum / float64(counts[e])
	}
	return &Positional{def: def, weights: weights}
}

func (p *Positional) Name() string { return NamePositional }

func (p *Positional) P2(e corpus.Element) float64 {
	if w, ok := p.weights[e]; ok {
		return w
	}
	return p.def
}
