package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tracerank/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Analysis.Unit != UnitNode {
		t.Errorf("Unit = %q, want %q", cfg.Analysis.Unit, UnitNode)
	}
	if cfg.Analysis.Strategy != "const" {
		t.Errorf("Strategy = %q, want const", cfg.Analysis.Strategy)
	}
	if cfg.Analysis.ConstantP2 != 0.2 {
		t.Errorf("ConstantP2 = %v, want 0.2", cfg.Analysis.ConstantP2)
	}
	if !cfg.Analysis.IncludePrior || !cfg.Analysis.IncludeSuccess || !cfg.Analysis.IncludeFailure {
		t.Error("all evidence terms should be enabled by default")
	}
	if cfg.Search.Bucket != BucketCommonElement {
		t.Errorf("Bucket = %q, want %q", cfg.Search.Bucket, BucketCommonElement)
	}
	if !cfg.Search.Dedupe {
		t.Error("Dedupe should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d (default)", cfg.Version, CurrentVersion)
	}
	if cfg.Search.MaxExpansions != 100000 {
		t.Errorf("MaxExpansions = %d, want 100000", cfg.Search.MaxExpansions)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, ".tracerank")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create .tracerank dir: %v", err)
	}

	configContent := `{
		"version": 1,
		"analysis": {
			"unit": "edge",
			"strategy": "positional",
			"includeFailure": false,
			"tolerance": 25
		},
		"search": {"bucket": "coarse"}
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Analysis.Unit != UnitEdge {
		t.Errorf("Unit = %q, want edge", cfg.Analysis.Unit)
	}
	if cfg.Analysis.Strategy != "positional" {
		t.Errorf("Strategy = %q, want positional", cfg.Analysis.Strategy)
	}
	if cfg.Analysis.IncludeFailure {
		t.Error("IncludeFailure should be disabled per config")
	}
	if cfg.Analysis.Tolerance != 25 {
		t.Errorf("Tolerance = %d, want 25", cfg.Analysis.Tolerance)
	}
	if cfg.Search.Bucket != BucketCoarse {
		t.Errorf("Bucket = %q, want coarse", cfg.Search.Bucket)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Analysis.ConstantP2 != 0.2 {
		t.Errorf("ConstantP2 = %v, want default 0.2", cfg.Analysis.ConstantP2)
	}
	if !cfg.Search.Dedupe {
		t.Error("Dedupe should keep its default")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("TRACERANK_ANALYSIS_STRATEGY", "freq-failure")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Analysis.Strategy != "freq-failure" {
		t.Errorf("Strategy = %q, want freq-failure from env", cfg.Analysis.Strategy)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, ".tracerank")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(tmpDir)
	if !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("LoadConfig() error = %v, want CONFIG_INVALID", err)
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Analysis.Strategy = "freq-success"
	cfg.Analysis.Tolerance = 7
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Analysis.Strategy != "freq-success" || loaded.Analysis.Tolerance != 7 {
		t.Errorf("loaded = %+v, want strategy freq-success tolerance 7", loaded.Analysis)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad version", func(c *Config) { c.Version = 9 }, "version"},
		{"bad unit", func(c *Config) { c.Analysis.Unit = "block" }, "analysis.unit"},
		{"bad strategy", func(c *Config) { c.Analysis.Strategy = "tarantula" }, "analysis.strategy"},
		{"p2 zero", func(c *Config) { c.Analysis.ConstantP2 = 0 }, "analysis.constantP2"},
		{"p2 one", func(c *Config) { c.Analysis.ConstantP2 = 1 }, "analysis.constantP2"},
		{"p1 zero", func(c *Config) { c.Analysis.PriorP1 = 0 }, "analysis.priorP1"},
		{"epsilon zero", func(c *Config) { c.Analysis.Epsilon = 0 }, "analysis.epsilon"},
		{"negative tolerance", func(c *Config) { c.Analysis.Tolerance = -1 }, "analysis.tolerance"},
		{"bad bucket", func(c *Config) { c.Search.Bucket = "exact" }, "search.bucket"},
		{"negative expansions", func(c *Config) { c.Search.MaxExpansions = -5 }, "search.maxExpansions"},
		{"frontier below -1", func(c *Config) { c.Search.MaxFrontier = -2 }, "search.maxFrontier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.HasCode(err, errors.ConfigInvalid) {
				t.Fatalf("Validate() = %v, want CONFIG_INVALID", err)
			}
			if want := "'" + tt.field + "'"; !strings.Contains(err.Error(), want) {
				t.Errorf("Validate() = %q, want mention of %s", err.Error(), want)
			}
		})
	}
}

func TestConfig_ValidateUnboundedFrontier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.MaxFrontier = -1
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with maxFrontier -1 = %v, want nil", err)
	}
}

func TestLogSuffix(t *testing.T) {
	tests := []struct {
		success, failure bool
		want             string
	}{
		{true, true, ""},
		{false, true, "_x2"},
		{true, false, "_x3"},
		{false, false, "_x2_x3"},
	}
	for _, tt := range tests {
		a := AnalysisConfig{IncludeSuccess: tt.success, IncludeFailure: tt.failure}
		if got := a.LogSuffix(); got != tt.want {
			t.Errorf("LogSuffix(%v, %v) = %q, want %q", tt.success, tt.failure, got, tt.want)
		}
	}
}

func TestEnvVars(t *testing.T) {
	vars := EnvVars()
	if len(vars) != 20 {
		t.Fatalf("len(EnvVars()) = %d, want 20", len(vars))
	}

	byKey := make(map[string]EnvVar)
	for _, v := range vars {
		byKey[v.Key] = v
	}
	got, ok := byKey["analysis.constantP2"]
	if !ok {
		t.Fatal("analysis.constantP2 missing")
	}
	if got.Name != "TRACERANK_ANALYSIS_CONSTANTP2" {
		t.Errorf("Name = %q, want TRACERANK_ANALYSIS_CONSTANTP2", got.Name)
	}
	if got.Default != "0.2" {
		t.Errorf("Default = %q, want 0.2", got.Default)
	}
	if byKey["search.dedupe"].Default != "true" {
		t.Errorf("search.dedupe default = %q, want true", byKey["search.dedupe"].Default)
	}
}
