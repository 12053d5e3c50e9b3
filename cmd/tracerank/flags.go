package main

import (
	"github.com/spf13/cobra"

	"tracerank/internal/config"
)

// analysisFlags are the command-line overrides shared by rank and batch.
type analysisFlags struct {
	unit          string
	strategy      string
	noSuccess     bool
	noFailure     bool
	noPrior       bool
	tolerance     int
	constantP2    float64
	bucket        string
	maxExpansions int
	maxFrontier   int
	noHistory     bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.unit, "unit", "b", "", "Unit of analysis: node or edge")
	fs.StringVarP(&f.strategy, "method", "m", "", "Cost strategy: const, freq-success, freq-failure, positional (aliases: freq, loc)")
	fs.BoolVar(&f.noSuccess, "x2", false, "Ignore evidence from succeeding traces (drop c2)")
	fs.BoolVar(&f.noFailure, "x3", false, "Ignore evidence from failing traces (drop c3)")
	fs.BoolVar(&f.noPrior, "no-prior", false, "Drop the per-element prior cost c1")
	fs.IntVar(&f.tolerance, "tolerance", 0, "Terminal candidates examined before giving up (0: number of nodes)")
	fs.Float64Var(&f.constantP2, "p2", 0, "p2 used by the const strategy")
	fs.StringVar(&f.bucket, "bucket", "", "Heuristic bucket policy: common-element or coarse")
	fs.IntVar(&f.maxExpansions, "max-expansions", 0, "Non-terminal pops before the search stops")
	fs.IntVar(&f.maxFrontier, "max-frontier", 0, "Frontier size beyond which new candidates are dropped (0: derived from tolerance, -1: unbounded)")
	fs.BoolVar(&f.noHistory, "no-history", false, "Do not record the outcome in the run history")
}

// apply overrides cfg with every flag that was set explicitly.
func (f *analysisFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("unit") {
		cfg.Analysis.Unit = f.unit
	}
	if changed("method") {
		cfg.Analysis.Strategy = f.strategy
	}
	if changed("x2") {
		cfg.Analysis.IncludeSuccess = !f.noSuccess
	}
	if changed("x3") {
		cfg.Analysis.IncludeFailure = !f.noFailure
	}
	if changed("no-prior") {
		cfg.Analysis.IncludePrior = !f.noPrior
	}
	if changed("tolerance") {
		cfg.Analysis.Tolerance = f.tolerance
	}
	if changed("p2") {
		cfg.Analysis.ConstantP2 = f.constantP2
	}
	if changed("bucket") {
		cfg.Search.Bucket = f.bucket
	}
	if changed("max-expansions") {
		cfg.Search.MaxExpansions = f.maxExpansions
	}
	if changed("max-frontier") {
		cfg.Search.MaxFrontier = f.maxFrontier
	}
	if changed("no-history") {
		cfg.Storage.Enabled = !f.noHistory
	}
}
