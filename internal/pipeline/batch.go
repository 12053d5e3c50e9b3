package pipeline

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"

	"tracerank/internal/config"
	"tracerank/internal/corpus"
	"tracerank/internal/errors"
	"tracerank/internal/logging"
	"tracerank/internal/rank"
)

// Manifest lists the versions of one subject program.
type Manifest struct {
	// GroundTruth is shared by every version.
	GroundTruth string `toml:"ground_truth"`
	// RankLog overrides the default rank-log location.
	RankLog  string            `toml:"rank_log"`
	Versions []ManifestVersion `toml:"version"`

	dir string
}

// ManifestVersion locates the inputs of one version.
type ManifestVersion struct {
	Number int    `toml:"number"`
	Nodes  string `toml:"nodes"`
	Traces string `toml:"traces"`
}

// LoadManifest reads a TOML manifest. Relative paths are resolved against
// the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, errors.New(errors.MalformedInput, "failed to parse manifest "+path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Newf(errors.MalformedInput, "manifest %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	m.dir = filepath.Dir(path)

	if m.GroundTruth == "" {
		return nil, errors.Newf(errors.MalformedInput, "manifest %s does not name a ground_truth file", path)
	}
	seen := make(map[int]bool, len(m.Versions))
	for i, v := range m.Versions {
		if v.Nodes == "" || v.Traces == "" {
			return nil, errors.Newf(errors.MalformedInput, "manifest %s: version %d needs nodes and traces", path, v.Number)
		}
		if seen[v.Number] {
			return nil, errors.Newf(errors.MalformedInput, "manifest %s: version %d listed twice", path, v.Number)
		}
		seen[v.Number] = true
		m.Versions[i].Nodes = m.resolve(v.Nodes)
		m.Versions[i].Traces = m.resolve(v.Traces)
	}
	m.GroundTruth = m.resolve(m.GroundTruth)
	if m.RankLog != "" {
		m.RankLog = m.resolve(m.RankLog)
	}
	return &m, nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// LogPath is the manifest's rank log, or the default location next to the
// first version's node-info file.
func (m *Manifest) LogPath(a config.AnalysisConfig, strategy string) string {
	if m.RankLog != "" {
		return m.RankLog
	}
	if len(m.Versions) == 0 {
		return filepath.Join(m.dir, "result_log", a.Unit+"_"+strategy+a.LogSuffix()+".log")
	}
	return rank.DefaultLogPath(m.Versions[0].Nodes, a.Unit, strategy, a.LogSuffix())
}

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// Jobs bounds the versions evaluated at once; 0 uses GOMAXPROCS.
	Jobs     int
	Analysis config.AnalysisConfig
	Search   config.SearchConfig
	Logger   *logging.Logger
	// Record, when set, receives every outcome in version order after all
	// versions finished.
	Record func(*rank.Outcome) error
}

// RunBatch evaluates every manifest version concurrently; each search stays
// single-threaded. The first error cancels the remaining versions.
func RunBatch(ctx context.Context, m *Manifest, opts BatchOptions) ([]*rank.Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	gt, err := corpus.LoadGroundTruth(m.GroundTruth)
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]*rank.Outcome, len(m.Versions))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, v := range m.Versions {
		i, v := i, v
		g.Go(func() error {
			out, err := Run(gCtx, Inputs{
				Version:     v.Number,
				NodesPath:   v.Nodes,
				TracesPath:  v.Traces,
				GroundTruth: gt,
				Analysis:    opts.Analysis,
				Search:      opts.Search,
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Version < outcomes[j].Version })
	if opts.Record != nil {
		for _, o := range outcomes {
			if err := opts.Record(o); err != nil {
				return outcomes, err
			}
		}
	}
	logger.Info("Batch finished", map[string]interface{}{
		"versions": len(outcomes),
		"jobs":     jobs,
	})
	return outcomes, nil
}
