package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracerank/internal/corpus"
)

var (
	simplifyOutput string
	simplifyUnit   string
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify <traces>",
	Short: "Collapse duplicate runs in a trace file",
	Long: `Read a trace file, keep the first occurrence of every distinct execution
pattern per outcome, and write the result in the same format. Statistics go to
stderr.

Examples:
  tracerank simplify traces.txt -o traces.simple.txt
  tracerank simplify traces.txt.gz -o traces.simple.txt.zst`,
	Args: cobra.ExactArgs(1),
	Run:  runSimplify,
}

func init() {
	simplifyCmd.Flags().StringVarP(&simplifyOutput, "output", "o", "", "Output file (default: stdout)")
	simplifyCmd.Flags().StringVarP(&simplifyUnit, "unit", "b", "node", "Unit used for the element statistics: node or edge")
	rootCmd.AddCommand(simplifyCmd)
}

func runSimplify(cmd *cobra.Command, args []string) {
	mode, err := corpus.ParseMode(simplifyUnit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := corpus.LoadTraces(args[0], mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := writeSimplified(simplifyOutput, store); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, formatSimplifyStats(store))
}

// writeSimplified writes store to path, or to stdout when path is empty.
func writeSimplified(path string, store *corpus.Store) error {
	if path == "" {
		return corpus.WriteTraces(os.Stdout, store)
	}
	out, err := corpus.CreateOutput(path)
	if err != nil {
		return err
	}
	if err := corpus.WriteTraces(out, store); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func formatSimplifyStats(store *corpus.Store) string {
	succeeded, failed := store.Runs()
	return fmt.Sprintf("runs: %d failed, %d succeeded\ndistinct: %d failing, %d succeeding\nelements: %d (%d in failing traces)\n",
		failed, succeeded,
		len(store.Failing()), len(store.Succeeding()),
		len(store.Elements()), len(store.FailingElements()))
}
