package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"tracerank/internal/errors"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

const envPrefix = "TRACERANK"

// Analysis units.
const (
	UnitNode = "node"
	UnitEdge = "edge"
)

// Bucket policies for the search heuristic.
const (
	BucketCommonElement = "common-element"
	BucketCoarse        = "coarse"
)

// StrategyNames lists every accepted cost strategy name, including the
// short aliases freq and loc.
var StrategyNames = []string{"const", "freq-success", "freq-failure", "positional", "freq", "loc"}

// Config represents the complete tracerank configuration
type Config struct {
	Version  int            `json:"version" mapstructure:"version" toml:"version"`
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" toml:"analysis"`
	Search   SearchConfig   `json:"search" mapstructure:"search" toml:"search"`
	Storage  StorageConfig  `json:"storage" mapstructure:"storage" toml:"storage"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging" toml:"logging"`
}

// AnalysisConfig selects the unit of analysis and the cost model
type AnalysisConfig struct {
	Unit              string  `json:"unit" mapstructure:"unit" toml:"unit"`
	Strategy          string  `json:"strategy" mapstructure:"strategy" toml:"strategy"`
	ConstantP2        float64 `json:"constantP2" mapstructure:"constantP2" toml:"constantP2"`
	PriorP1           float64 `json:"priorP1" mapstructure:"priorP1" toml:"priorP1"`
	Epsilon           float64 `json:"epsilon" mapstructure:"epsilon" toml:"epsilon"`
	FrequencyEpsilon  float64 `json:"frequencyEpsilon" mapstructure:"frequencyEpsilon" toml:"frequencyEpsilon"`
	PositionalDefault float64 `json:"positionalDefault" mapstructure:"positionalDefault" toml:"positionalDefault"`
	IncludePrior      bool    `json:"includePrior" mapstructure:"includePrior" toml:"includePrior"`
	IncludeSuccess    bool    `json:"includeSuccess" mapstructure:"includeSuccess" toml:"includeSuccess"`
	IncludeFailure    bool    `json:"includeFailure" mapstructure:"includeFailure" toml:"includeFailure"`
	// Tolerance is the number of terminal emissions examined; 0 means the node count.
	Tolerance int `json:"tolerance" mapstructure:"tolerance" toml:"tolerance"`
}

// SearchConfig contains frontier policy and budgets
type SearchConfig struct {
	Bucket        string `json:"bucket" mapstructure:"bucket" toml:"bucket"`
	Dedupe        bool   `json:"dedupe" mapstructure:"dedupe" toml:"dedupe"`
	MaxExpansions int    `json:"maxExpansions" mapstructure:"maxExpansions" toml:"maxExpansions"`
	// MaxFrontier 0 derives the bound from the tolerance; -1 is unbounded.
	MaxFrontier int `json:"maxFrontier" mapstructure:"maxFrontier" toml:"maxFrontier"`
}

// StorageConfig contains run-history settings
type StorageConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" toml:"enabled"`
	DataDir string `json:"dataDir" mapstructure:"dataDir" toml:"dataDir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format" toml:"format"`
	Level  string `json:"level" mapstructure:"level" toml:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Analysis: AnalysisConfig{
			Unit:              UnitNode,
			Strategy:          "const",
			ConstantP2:        0.2,
			PriorP1:           1e-20,
			Epsilon:           1e-20,
			FrequencyEpsilon:  1e-10,
			PositionalDefault: 1e-20,
			IncludePrior:      true,
			IncludeSuccess:    true,
			IncludeFailure:    true,
			Tolerance:         0,
		},
		Search: SearchConfig{
			Bucket:        BucketCommonElement,
			Dedupe:        true,
			MaxExpansions: 100000,
			MaxFrontier:   0,
		},
		Storage: StorageConfig{
			Enabled: true,
			DataDir: ".tracerank",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

type setting struct {
	key   string
	value interface{}
}

// settings flattens d into dotted keys in file order.
func settings(d *Config) []setting {
	return []setting{
		{"version", d.Version},
		{"analysis.unit", d.Analysis.Unit},
		{"analysis.strategy", d.Analysis.Strategy},
		{"analysis.constantP2", d.Analysis.ConstantP2},
		{"analysis.priorP1", d.Analysis.PriorP1},
		{"analysis.epsilon", d.Analysis.Epsilon},
		{"analysis.frequencyEpsilon", d.Analysis.FrequencyEpsilon},
		{"analysis.positionalDefault", d.Analysis.PositionalDefault},
		{"analysis.includePrior", d.Analysis.IncludePrior},
		{"analysis.includeSuccess", d.Analysis.IncludeSuccess},
		{"analysis.includeFailure", d.Analysis.IncludeFailure},
		{"analysis.tolerance", d.Analysis.Tolerance},
		{"search.bucket", d.Search.Bucket},
		{"search.dedupe", d.Search.Dedupe},
		{"search.maxExpansions", d.Search.MaxExpansions},
		{"search.maxFrontier", d.Search.MaxFrontier},
		{"storage.enabled", d.Storage.Enabled},
		{"storage.dataDir", d.Storage.DataDir},
		{"logging.format", d.Logging.Format},
		{"logging.level", d.Logging.Level},
	}
}

// setDefaults registers every key so viper can resolve TRACERANK_* overrides.
func setDefaults(v *viper.Viper, d *Config) {
	for _, st := range settings(d) {
		v.SetDefault(st.key, st.value)
	}
}

// EnvVar is an environment override for one configuration key.
type EnvVar struct {
	Name    string `json:"name"`
	Key     string `json:"key"`
	Default string `json:"default"`
}

// EnvVars lists the environment variables LoadConfig honours.
func EnvVars() []EnvVar {
	all := settings(DefaultConfig())
	vars := make([]EnvVar, 0, len(all))
	for _, st := range all {
		vars = append(vars, EnvVar{
			Name:    envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(st.key, ".", "_")),
			Key:     st.key,
			Default: fmt.Sprint(st.value),
		})
	}
	return vars
}

// LoadConfig loads configuration from <dir>/.tracerank/config.json.
// Missing keys keep their defaults; TRACERANK_ANALYSIS_STRATEGY style
// environment variables override the file.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(dir, ".tracerank"))

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.New(errors.ConfigInvalid, "failed to read config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to decode config", err)
	}

	return &cfg, nil
}

// Save writes the configuration to <dir>/.tracerank/config.json
func (c *Config) Save(dir string) error {
	configDir := filepath.Join(dir, ".tracerank")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.New(errors.IOError, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return invalid("version", fmt.Sprintf("unsupported config version %d", c.Version))
	}

	a := c.Analysis
	if a.Unit != UnitNode && a.Unit != UnitEdge {
		return invalid("analysis.unit", fmt.Sprintf("must be %q or %q, got %q", UnitNode, UnitEdge, a.Unit))
	}
	if !isStrategyName(a.Strategy) {
		return invalid("analysis.strategy", fmt.Sprintf("unknown strategy %q (want one of %s)", a.Strategy, strings.Join(StrategyNames, ", ")))
	}
	if a.ConstantP2 <= 0 || a.ConstantP2 >= 1 {
		return invalid("analysis.constantP2", "must lie strictly between 0 and 1")
	}
	if a.PriorP1 <= 0 || a.PriorP1 > 1 {
		return invalid("analysis.priorP1", "must lie in (0, 1]")
	}
	if a.Epsilon <= 0 {
		return invalid("analysis.epsilon", "must be positive")
	}
	if a.FrequencyEpsilon <= 0 {
		return invalid("analysis.frequencyEpsilon", "must be positive")
	}
	if a.PositionalDefault < 0 || a.PositionalDefault > 1 {
		return invalid("analysis.positionalDefault", "must lie in [0, 1]")
	}
	if a.Tolerance < 0 {
		return invalid("analysis.tolerance", "must be >= 0")
	}

	s := c.Search
	if s.Bucket != BucketCommonElement && s.Bucket != BucketCoarse {
		return invalid("search.bucket", fmt.Sprintf("must be %q or %q, got %q", BucketCommonElement, BucketCoarse, s.Bucket))
	}
	if s.MaxExpansions < 0 {
		return invalid("search.maxExpansions", "must be >= 0")
	}
	if s.MaxFrontier < -1 {
		return invalid("search.maxFrontier", "must be >= -1")
	}

	return nil
}

// LogSuffix returns the "_x2"/"_x3" suffix the rank log name carries when
// succeeding or failing evidence is switched off.
func (a AnalysisConfig) LogSuffix() string {
	suffix := ""
	if !a.IncludeSuccess {
		suffix += "_x2"
	}
	if !a.IncludeFailure {
		suffix += "_x3"
	}
	return suffix
}

func isStrategyName(name string) bool {
	for _, n := range StrategyNames {
		if n == name {
			return true
		}
	}
	return false
}

func invalid(field, message string) error {
	return errors.Newf(errors.ConfigInvalid, "config error in field '%s': %s", field, message)
}
