package pipeline

import (
	"tracerank/internal/config"
	"tracerank/internal/cost"
	"tracerank/internal/rank"
	"tracerank/internal/storage"
)

// Recorder writes outcomes to the rank log and, when configured, the run history.
type Recorder struct {
	Log  *rank.RankLog
	DB   *storage.DB
	Meta storage.RunMeta
}

// MetaFor describes the analysis configuration for history rows.
func MetaFor(a config.AnalysisConfig, batchID string) storage.RunMeta {
	return storage.RunMeta{
		BatchID:  batchID,
		Unit:     a.Unit,
		Strategy: cost.CanonicalName(a.Strategy),
		Variant:  a.LogSuffix(),
	}
}

// Record appends o to every configured sink.
func (r *Recorder) Record(o *rank.Outcome) error {
	if r.Log != nil {
		if err := r.Log.Append(o); err != nil {
			return err
		}
	}
	if r.DB != nil {
		if _, err := r.DB.RecordOutcome(r.Meta, o); err != nil {
			return err
		}
	}
	return nil
}
