// Package pipeline wires the trace store, cost model, search engine and
// ranking evaluator together for one version or a batch of versions.
package pipeline

import (
	"context"
	"time"

	"tracerank/internal/config"
	"tracerank/internal/corpus"
	"tracerank/internal/cost"
	"tracerank/internal/errors"
	"tracerank/internal/logging"
	"tracerank/internal/rank"
	"tracerank/internal/search"
)

// Inputs names everything needed to rank one version.
type Inputs struct {
	Version    int
	NodesPath  string
	TracesPath string
	// GroundTruth is loaded from GroundTruthPath when nil.
	GroundTruth     *corpus.GroundTruth
	GroundTruthPath string

	Analysis config.AnalysisConfig
	Search   config.SearchConfig
	Logger   *logging.Logger
}

// Run ranks one version. A version whose ground truth is the -1 sentinel is
// reported as not applicable without reading its traces.
func Run(ctx context.Context, in Inputs) (*rank.Outcome, error) {
	logger := in.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	logger = logger.With(map[string]interface{}{"version": in.Version})
	start := time.Now()

	nodes, err := corpus.LoadNodeTable(in.NodesPath)
	if err != nil {
		return nil, err
	}
	// The node count is the default tolerance; zero would leave nothing to rank.
	if nodes.Len() == 0 {
		return nil, errors.Malformed(in.NodesPath, 0, "node-info file lists no nodes", nil)
	}

	gt := in.GroundTruth
	if gt == nil {
		gt, err = corpus.LoadGroundTruth(in.GroundTruthPath)
		if err != nil {
			return nil, err
		}
	}
	fault, err := gt.Lookup(in.Version)
	if err != nil {
		return nil, err
	}
	if !fault.Applicable() {
		logger.Info("Version has no applicable fault, skipping search", map[string]interface{}{
			"nodes": nodes.Len(),
		})
		return rank.NotApplicable(fault, nodes.Len()), nil
	}

	mode, err := corpus.ParseMode(in.Analysis.Unit)
	if err != nil {
		return nil, err
	}
	store, err := corpus.LoadTraces(in.TracesPath, mode)
	if err != nil {
		return nil, err
	}
	succeeded, failed := store.Runs()
	logger.Debug("Traces loaded", map[string]interface{}{
		"failing":    len(store.Failing()),
		"succeeding": len(store.Succeeding()),
		"runs":       succeeded + failed,
		"elements":   len(store.Elements()),
	})

	strategy, err := cost.NewStrategy(in.Analysis.Strategy, store, cost.ParamsFromConfig(in.Analysis))
	if err != nil {
		return nil, err
	}
	model := cost.NewModel(strategy, cost.OptionsFromConfig(in.Analysis))

	tolerance := in.Analysis.Tolerance
	if tolerance <= 0 {
		tolerance = nodes.Len()
	}
	opts := search.OptionsFromConfig(in.Search, logger)
	opts.Tolerance = tolerance
	engine := search.NewEngine(store, model, opts)

	ev := rank.NewEvaluator(nodes, fault.Targets(), logger)
	out, err := ev.Evaluate(ctx, engine, rank.Setup{Fault: fault, Tolerance: tolerance})
	if err != nil {
		return nil, err
	}
	out.Duration = time.Since(start)

	logger.Info("Version ranked", map[string]interface{}{
		"strategy": strategy.Name(),
		"status":   string(out.Status),
		"rank":     out.RankField(),
		"examined": out.Examined,
		"duration": out.Duration.String(),
	})
	return out, nil
}
