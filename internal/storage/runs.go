package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tracerank/internal/rank"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunMeta identifies the configuration an outcome was produced under.
type RunMeta struct {
	BatchID  string
	Unit     string
	Strategy string
	// Variant is the rank-log suffix for disabled evidence terms, e.g. "_x2".
	Variant string
}

// RunRecord is one stored rank outcome.
type RunRecord struct {
	ID          string      `json:"id"`
	BatchID     string      `json:"batchId,omitempty"`
	Version     int         `json:"version"`
	Unit        string      `json:"unit"`
	Strategy    string      `json:"strategy"`
	Variant     string      `json:"variant,omitempty"`
	Status      rank.Status `json:"status"`
	Rank        int         `json:"rank,omitempty"`
	FaultyLines []int       `json:"faultyLines"`
	Tolerance   int         `json:"tolerance"`
	TotalNodes  int         `json:"totalNodes"`
	Examined    int         `json:"examined"`
	Winner      []string    `json:"winner,omitempty"`
	DurationMs  int64       `json:"durationMs"`
	RecordedAt  time.Time   `json:"recordedAt"`
}

// RankField renders the rank the way the rank log does.
func (r *RunRecord) RankField() string {
	o := rank.Outcome{Status: r.Status, Rank: r.Rank, Tolerance: r.Tolerance}
	return o.RankField()
}

// RecordOutcome persists o under a fresh run id.
func (db *DB) RecordOutcome(meta RunMeta, o *rank.Outcome) (*RunRecord, error) {
	rec := &RunRecord{
		ID:          uuid.New().String(),
		BatchID:     meta.BatchID,
		Version:     o.Version,
		Unit:        meta.Unit,
		Strategy:    meta.Strategy,
		Variant:     meta.Variant,
		Status:      o.Status,
		Rank:        o.Rank,
		FaultyLines: o.FaultyLines,
		Tolerance:   o.Tolerance,
		TotalNodes:  o.TotalNodes,
		Examined:    o.Examined,
		Winner:      o.Winner,
		DurationMs:  o.Duration.Milliseconds(),
		RecordedAt:  time.Now().UTC(),
	}

	lines, err := json.Marshal(rec.FaultyLines)
	if err != nil {
		return nil, fmt.Errorf("failed to encode faulty lines: %w", err)
	}
	winner, err := json.Marshal(rec.Winner)
	if err != nil {
		return nil, fmt.Errorf("failed to encode winner: %w", err)
	}

	var rankValue interface{}
	if rec.Status == rank.StatusFound {
		rankValue = rec.Rank
	}

	_, err = db.conn.Exec(`
		INSERT INTO rank_runs (
			id, batch_id, version, unit, strategy, variant, status, rank,
			faulty_lines, tolerance, total_nodes, examined, winner, duration_ms, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, nullString(rec.BatchID), rec.Version, rec.Unit, rec.Strategy, rec.Variant, string(rec.Status), rankValue,
		string(lines), rec.Tolerance, rec.TotalNodes, rec.Examined, string(winner), rec.DurationMs,
		rec.RecordedAt.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return rec, nil
}

// Filter narrows ListRuns. Zero fields match everything.
type Filter struct {
	Version  int
	Unit     string
	Strategy string
	BatchID  string
	Status   rank.Status
	Limit    int
}

// ListRuns returns matching runs, newest first.
func (db *DB) ListRuns(f Filter) ([]RunRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Version != 0 {
		where = append(where, "version = ?")
		args = append(args, f.Version)
	}
	if f.Unit != "" {
		where = append(where, "unit = ?")
		args = append(args, f.Unit)
	}
	if f.Strategy != "" {
		where = append(where, "strategy = ?")
		args = append(args, f.Strategy)
	}
	if f.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `
		SELECT id, batch_id, version, unit, strategy, variant, status, rank,
			faulty_lines, tolerance, total_nodes, examined, winner, duration_ms, recorded_at
		FROM rank_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRun(rows *sql.Rows) (*RunRecord, error) {
	var (
		rec        RunRecord
		batchID    sql.NullString
		status     string
		rankValue  sql.NullInt64
		lines      string
		winner     sql.NullString
		recordedAt string
	)
	if err := rows.Scan(&rec.ID, &batchID, &rec.Version, &rec.Unit, &rec.Strategy, &rec.Variant, &status, &rankValue,
		&lines, &rec.Tolerance, &rec.TotalNodes, &rec.Examined, &winner, &rec.DurationMs, &recordedAt); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	rec.BatchID = batchID.String
	rec.Status = rank.Status(status)
	rec.Rank = int(rankValue.Int64)
	if err := json.Unmarshal([]byte(lines), &rec.FaultyLines); err != nil {
		return nil, fmt.Errorf("failed to decode faulty lines of run %s: %w", rec.ID, err)
	}
	if winner.Valid && winner.String != "" {
		if err := json.Unmarshal([]byte(winner.String), &rec.Winner); err != nil {
			return nil, fmt.Errorf("failed to decode winner of run %s: %w", rec.ID, err)
		}
	}
	t, err := time.Parse(timeLayout, recordedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recorded_at of run %s: %w", rec.ID, err)
	}
	rec.RecordedAt = t
	return &rec, nil
}

// BestRanks returns, per version, the best rank any found run achieved
// under the given unit and strategy.
func (db *DB) BestRanks(unit, strategy string) (map[int]int, error) {
	rows, err := db.conn.Query(`
		SELECT version, MIN(rank)
		FROM rank_runs
		WHERE unit = ? AND strategy = ? AND status = ?
		GROUP BY version
	`, unit, strategy, string(rank.StatusFound))
	if err != nil {
		return nil, fmt.Errorf("failed to query best ranks: %w", err)
	}
	defer rows.Close()

	best := make(map[int]int)
	for rows.Next() {
		var version, r int
		if err := rows.Scan(&version, &r); err != nil {
			return nil, err
		}
		best[version] = r
	}
	return best, rows.Err()
}

// ConfigAggregate summarises every stored run of one configuration.
type ConfigAggregate struct {
	Unit     string  `json:"unit"`
	Strategy string  `json:"strategy"`
	Variant  string  `json:"variant,omitempty"`
	Runs     int64   `json:"runs"`
	Found    int64   `json:"found"`
	Exceeded int64   `json:"exceeded"`
	Skipped  int64   `json:"skipped"`
	MRR      float64 `json:"mrr"`
}

// Aggregates groups stored runs by configuration.
func (db *DB) Aggregates() ([]ConfigAggregate, error) {
	rows, err := db.conn.Query(`
		SELECT
			unit, strategy, variant,
			COUNT(*),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			COALESCE(SUM(CASE WHEN status = ? THEN 1.0 / rank ELSE 0 END), 0)
		FROM rank_runs
		GROUP BY unit, strategy, variant
		ORDER BY unit, strategy, variant
	`, string(rank.StatusFound), string(rank.StatusExceeded), string(rank.StatusNotApplicable), string(rank.StatusFound))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate runs: %w", err)
	}
	defer rows.Close()

	var out []ConfigAggregate
	for rows.Next() {
		var a ConfigAggregate
		var rrSum float64
		if err := rows.Scan(&a.Unit, &a.Strategy, &a.Variant, &a.Runs, &a.Found, &a.Exceeded, &a.Skipped, &rrSum); err != nil {
			return nil, err
		}
		if applicable := a.Found + a.Exceeded; applicable > 0 {
			a.MRR = rrSum / float64(applicable)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
