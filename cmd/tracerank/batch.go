package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tracerank/internal/cost"
	"tracerank/internal/pipeline"
	"tracerank/internal/rank"
)

var (
	batchJobs     int
	batchFormat   string
	batchLogPath  string
	batchAnalysis analysisFlags
)

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.toml>",
	Short: "Rank every version listed in a manifest",
	Long: `Evaluate all versions of a subject program in parallel and print a summary.

The manifest is TOML:

  ground_truth = "faults.txt"
  rank_log = "result_log/node_const.log"   # optional

  [[version]]
  number = 1
  nodes = "v1/nodes.txt"
  traces = "v1/traces.txt.gz"

Rank-log lines and history rows are written in version order once every
version finished.

Examples:
  tracerank batch tcas.toml
  tracerank batch tcas.toml -m freq-success --jobs 8 --format json`,
	Args: cobra.ExactArgs(1),
	Run:  runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", 0, "Versions evaluated at once (default: number of CPUs)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "human", "Output format (human, json)")
	batchCmd.Flags().StringVar(&batchLogPath, "log", "", "Rank log path (default: from manifest)")
	batchAnalysis.register(batchCmd)
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	batchAnalysis.apply(cmd, cfg)
	mustValidate(cfg)
	logger := newLogger(cfg)

	manifest, err := pipeline.LoadManifest(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPath := batchLogPath
	if logPath == "" {
		logPath = manifest.LogPath(cfg.Analysis, cost.CanonicalName(cfg.Analysis.Strategy))
	}
	rec, closeRecorder := openRecorder(cfg, logPath, uuid.New().String(), logger)

	ctx, cancel := newContext()
	outcomes, err := pipeline.RunBatch(ctx, manifest, pipeline.BatchOptions{
		Jobs:     batchJobs,
		Analysis: cfg.Analysis,
		Search:   cfg.Search,
		Logger:   logger,
		Record:   rec.Record,
	})
	cancel()
	closeRecorder()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	summary := rank.Summarize(outcomes)
	if batchFormat == "json" {
		jsonBytes, err := summary.JSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonBytes))
		return
	}
	fmt.Println(summary.FormatReport())
	fmt.Printf("Rank log: %s\n", logPath)
}
