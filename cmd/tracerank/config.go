package main

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"tracerank/internal/config"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialise the configuration",
	Long: `The configuration lives in <root>/.tracerank/config.json. Every key can be
overridden with a TRACERANK_* environment variable.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run:   runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration under --root",
	Run:   runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables that override configuration keys",
	Run:   runConfigEnv,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (human, json, toml)")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	data, err := formatConfig(cfg, configFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(string(data))
	if configFormat == "human" {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
}

// formatConfig renders cfg as TOML (human, toml) or indented JSON.
func formatConfig(cfg *config.Config, format string) ([]byte, error) {
	switch format {
	case "json":
		var buf bytes.Buffer
		if err := writeJSON(&buf, cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "toml", "human":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("formatting TOML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want human, json or toml)", format)
	}
}

func runConfigInit(cmd *cobra.Command, args []string) {
	if err := config.DefaultConfig().Save(rootDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default configuration to %s/.tracerank/config.json\n", rootDir)
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tKEY\tDEFAULT")
	for _, v := range config.EnvVars() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Name, v.Key, v.Default)
	}
	tw.Flush()
}
