package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tracerank/internal/cost"
	"tracerank/internal/logging"
	"tracerank/internal/rank"
	"tracerank/internal/storage"
)

var (
	historyVersion  int
	historyUnit     string
	historyStrategy string
	historyStatus   string
	historyBatch    string
	historyLimit    int
	historySummary  bool
	historyBest     bool
	historyFormat   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded rank runs",
	Long: `List the outcomes stored in the run history, newest first, or aggregate them
per configuration with --summary.

Examples:
  tracerank history --ver 3
  tracerank history -b edge -m positional --limit 20
  tracerank history --summary --format json
  tracerank history --best -b node -m freq-success`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyVersion, "ver", 0, "Only runs of this version")
	historyCmd.Flags().StringVarP(&historyUnit, "unit", "b", "", "Only runs with this unit")
	historyCmd.Flags().StringVarP(&historyStrategy, "method", "m", "", "Only runs with this cost strategy")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Only runs with this status (found, exceeded, not-applicable)")
	historyCmd.Flags().StringVar(&historyBatch, "batch", "", "Only runs of this batch id")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum runs to list (0: all)")
	historyCmd.Flags().BoolVar(&historySummary, "summary", false, "Aggregate runs per configuration")
	historyCmd.Flags().BoolVar(&historyBest, "best", false, "Best rank per version for --unit and --method")
	historyCmd.Flags().StringVar(&historyFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg)
	if !cfg.Storage.Enabled {
		logger.Warn("Run history is disabled in config (storage.enabled)", nil)
	}

	db, err := storage.Open(dataDir(cfg), logging.NewDiscardLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run history: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if historySummary {
		aggs, err := db.Aggregates()
		if err != nil {
			db.Close()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if historyFormat == "json" {
			printJSON(aggs)
			return
		}
		printAggregates(aggs)
		return
	}

	if historyBest {
		showBestRanks(db)
		return
	}

	filter := storage.Filter{
		Version: historyVersion,
		Unit:    historyUnit,
		BatchID: historyBatch,
		Status:  rank.Status(historyStatus),
		Limit:   historyLimit,
	}
	if historyStrategy != "" {
		filter.Strategy = cost.CanonicalName(historyStrategy)
	}
	runs, err := db.ListRuns(filter)
	if err != nil {
		db.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if historyFormat == "json" {
		printJSON(runs)
		return
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}
	printRuns(runs)
}

func showBestRanks(db *storage.DB) {
	if historyUnit == "" || historyStrategy == "" {
		db.Close()
		fmt.Fprintln(os.Stderr, "Error: --best needs --unit and --method")
		os.Exit(1)
	}
	best, err := db.BestRanks(historyUnit, cost.CanonicalName(historyStrategy))
	if err != nil {
		db.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if historyFormat == "json" {
		printJSON(best)
		return
	}
	if len(best) == 0 {
		fmt.Println("No runs recorded.")
		return
	}
	versions := make([]int, 0, len(best))
	for v := range best {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tBEST RANK")
	for _, v := range versions {
		fmt.Fprintf(tw, "%d\t%d\n", v, best[v])
	}
	tw.Flush()
}

func printRuns(runs []storage.RunRecord) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tVERSION\tCONFIG\tRANK\tNODES\tWINNER")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n",
			r.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			r.Version,
			r.Unit+"_"+r.Strategy+r.Variant,
			r.RankField(),
			r.TotalNodes,
			strings.Join(r.Winner, ","))
	}
	tw.Flush()
}

func printAggregates(aggs []storage.ConfigAggregate) {
	if len(aggs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIG\tRUNS\tFOUND\tEXCEEDED\tSKIPPED\tMRR")
	for _, a := range aggs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.3f\n",
			a.Unit+"_"+a.Strategy+a.Variant, a.Runs, a.Found, a.Exceeded, a.Skipped, a.MRR)
	}
	tw.Flush()
}
