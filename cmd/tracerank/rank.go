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
	rankNodes    string
	rankTraces   string
	rankFaults   string
	rankVersion  int
	rankLogPath  string
	rankFormat   string
	rankAnalysis analysisFlags
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidate locations for one program version",
	Long: `Search the traces of one version for the cheapest candidate sets that explain
every failing run, and report the rank at which a candidate first names a faulty line.

The result is appended to the rank log as
  <version>\t<faulty lines>\t<rank | >tolerance | n/a>\t<node count>

Examples:
  tracerank rank --nodes v3/nodes.txt --traces v3/traces.txt --faults faults.txt --ver 3
  tracerank rank ... -b edge -m positional --x2
  tracerank rank ... --traces v3/traces.txt.zst -d`,
	Run: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankNodes, "nodes", "", "Node-info file")
	rankCmd.Flags().StringVar(&rankTraces, "traces", "", "Trace file (.gz and .zst are decompressed)")
	rankCmd.Flags().StringVar(&rankFaults, "faults", "", "Ground-truth mapping of version to faulty lines")
	rankCmd.Flags().IntVar(&rankVersion, "ver", 0, "Version number to look up in the ground truth")
	rankCmd.Flags().StringVar(&rankLogPath, "log", "", "Rank log path (default: <nodes>/../../result_log/<unit>_<method>.log)")
	rankCmd.Flags().StringVar(&rankFormat, "format", "human", "Output format (human, json)")
	rankAnalysis.register(rankCmd)
	for _, name := range []string{"nodes", "traces", "faults", "ver"} {
		_ = rankCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	rankAnalysis.apply(cmd, cfg)
	mustValidate(cfg)
	logger := newLogger(cfg)

	ctx, cancel := newContext()
	defer cancel()

	out, err := pipeline.Run(ctx, pipeline.Inputs{
		Version:         rankVersion,
		NodesPath:       rankNodes,
		TracesPath:      rankTraces,
		GroundTruthPath: rankFaults,
		Analysis:        cfg.Analysis,
		Search:          cfg.Search,
		Logger:          logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPath := rankLogPath
	if logPath == "" {
		logPath = rank.DefaultLogPath(rankNodes, cfg.Analysis.Unit, cost.CanonicalName(cfg.Analysis.Strategy), cfg.Analysis.LogSuffix())
	}
	rec, closeRecorder := openRecorder(cfg, logPath, uuid.New().String(), logger)
	if err := recordAndClose(rec, closeRecorder, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if rankFormat == "json" {
		printJSON(out)
		return
	}
	fmt.Println(out.LogLine())
	if out.Status == rank.StatusFound {
		fmt.Printf("Winner: %v at %v\n", out.Winner, out.Locations)
	}
}
