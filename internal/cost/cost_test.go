package cost

import (
	"math"
	"strings"
	"testing"

	"tracerank/internal/config"
	"tracerank/internal/corpus"
	"tracerank/internal/errors"
)

const traces = `True
,(1, 2, 3)
True
,(2, 3)
False
,(1, 2)
False
,(4, 1)
`

func loadStore(t *testing.T, mode corpus.Mode) *corpus.Store {
	t.Helper()
	store, err := corpus.ReadTraces(strings.NewReader(traces), "t.txt", mode)
	if err != nil {
		t.Fatalf("ReadTraces() error = %v", err)
	}
	return store
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewStrategy(t *testing.T) {
	store := loadStore(t, corpus.ModeNode)
	params := ParamsFromConfig(config.DefaultConfig().Analysis)

	tests := []struct {
		name string
		want string
	}{
		{"const", NameConstant},
		{"freq-success", NameFrequencySuccess},
		{"freq", NameFrequencySuccess},
		{"freq-failure", NameFrequencyFailure},
		{"positional", NamePositional},
		{"LOC", NamePositional},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStrategy(tt.name, store, params)
			if err != nil {
				t.Fatalf("NewStrategy(%q) error = %v", tt.name, err)
			}
			if s.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.want)
			}
		})
	}

	if _, err := NewStrategy("random", store, params); !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("NewStrategy(random) error = %v, want CONFIG_INVALID", err)
	}
}

func TestStrategyP2(t *testing.T) {
	store := loadStore(t, corpus.ModeNode)
	const eps = 1e-10
	n := corpus.NodeElement

	tests := []struct {
		name     string
		strategy Strategy
		elem     corpus.Element
		want     float64
	}{
		{"const", Constant{K: 0.2}, n(1), 0.2},
		// node 1: 2 succeeding, 1 failing pattern
		{"freq-success", &FrequencySuccess{store: store, eps: eps}, n(1), 2.0 / 3.0},
		{"freq-failure", &FrequencyFailure{store: store, eps: eps}, n(1), 1.0 / 3.0},
		{"freq-success unseen", &FrequencySuccess{store: store, eps: eps}, n(9), 0.5},
		// node 1 is at index 0 of (1, 2) and index 1 of (4, 1): (0.75 + 0.5) / 2
		{"positional", NewPositional(store, 1e-20), n(1), 0.625},
		{"positional late", NewPositional(store, 1e-20), n(2), 0.5},
		{"positional absent", NewPositional(store, 1e-20), n(3), 1e-20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.strategy.P2(tt.elem); !approx(got, tt.want) {
				t.Errorf("P2(%v) = %v, want %v", tt.elem, got, tt.want)
			}
		})
	}
}

func TestPositionalEdgeMode(t *testing.T) {
	store := loadStore(t, corpus.ModeEdge)
	p := NewPositional(store, 0.01)
	// (4, 1) yields edges 4->1 at index 0 and 1->-1 at index 1 of length 2.
	if got := p.P2(corpus.EdgeElement(1, corpus.Terminal)); !approx(got, 0.5) {
		t.Errorf("P2(1->-1) = %v, want 0.5", got)
	}
	if got := p.P2(corpus.EdgeElement(2, 3)); got != 0.01 {
		t.Errorf("P2(2->3) = %v, want default 0.01", got)
	}
}

func TestModelTerms(t *testing.T) {
	opts := Options{PriorP1: 1e-20, Epsilon: 1e-20, IncludePrior: true, IncludeSuccess: true, IncludeFailure: true}
	m := NewModel(Constant{K: 0.2}, opts)
	terms := m.Terms(corpus.NodeElement(1))

	if !approx(terms.C1, -math.Log(1e-20)) {
		t.Errorf("C1 = %v, want %v", terms.C1, -math.Log(1e-20))
	}
	if !approx(terms.C2, -math.Log(0.2)) {
		t.Errorf("C2 = %v, want %v", terms.C2, -math.Log(0.2))
	}
	if !approx(terms.C3, -math.Log(0.8)) {
		t.Errorf("C3 = %v, want %v", terms.C3, -math.Log(0.8))
	}

	tests := []struct {
		name   string
		mutate func(*Options)
		check  func(Terms) bool
	}{
		{"no prior", func(o *Options) { o.IncludePrior = false }, func(t Terms) bool { return t.C1 == 0 }},
		{"no success", func(o *Options) { o.IncludeSuccess = false }, func(t Terms) bool { return t.C2 == 0 && t.C3 > 0 }},
		{"no failure", func(o *Options) { o.IncludeFailure = false }, func(t Terms) bool { return t.C3 == 0 && t.C2 > 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := opts
			tt.mutate(&o)
			if got := NewModel(Constant{K: 0.2}, o).Terms(corpus.NodeElement(1)); !tt.check(got) {
				t.Errorf("Terms() = %+v", got)
			}
		})
	}
}

func TestModelNonNegative(t *testing.T) {
	opts := Options{PriorP1: 1, Epsilon: 1e-20, IncludePrior: true, IncludeSuccess: true, IncludeFailure: true}
	for _, k := range []float64{0, 1e-300, 0.5, 1} {
		terms := NewModel(Constant{K: k}, opts).Terms(corpus.NodeElement(1))
		for _, v := range []float64{terms.C1, terms.C2, terms.C3} {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("p2=%v: Terms() = %+v, want finite non-negative", k, terms)
			}
		}
	}
}

func TestModelExtendMatchesCost(t *testing.T) {
	store := loadStore(t, corpus.ModeNode)
	s, err := NewStrategy("freq-success", store, ParamsFromConfig(config.DefaultConfig().Analysis))
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(s, OptionsFromConfig(config.DefaultConfig().Analysis))

	members := []corpus.Element{corpus.NodeElement(1), corpus.NodeElement(3), corpus.NodeElement(4)}
	g := 0.0
	for i, e := range members {
		next := m.Extend(g, e)
		if next < g {
			t.Errorf("Extend() decreased g from %v to %v", g, next)
		}
		g = next
		if want := m.Cost(members[:i+1]); !approx(g, want) {
			t.Errorf("Extend() after %d members = %v, Cost() = %v", i+1, g, want)
		}
	}

	single := m.Terms(corpus.NodeElement(2))
	if got := m.Cost([]corpus.Element{corpus.NodeElement(2)}); !approx(got, single.C1+single.C2+single.C3) {
		t.Errorf("singleton Cost() = %v, want c1+c2+c3 = %v", got, single.Sum())
	}
}
