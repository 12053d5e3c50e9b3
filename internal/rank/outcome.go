// Package rank scores the emissions of a search against the known faulty
// lines of a program version.
// It records the rank of the first candidate that names a faulty line.
package rank

import (
	"fmt"
	"strings"
	"time"

	"tracerank/internal/corpus"
)

// Status is the result class of one evaluated version.
type Status string

const (
	// StatusFound means a candidate within tolerance named a faulty line.
	StatusFound Status = "found"
	// StatusExceeded means no candidate within tolerance named a faulty line.
	StatusExceeded Status = "exceeded"
	// StatusNotApplicable means the ground truth marks the version with -1.
	StatusNotApplicable Status = "not-applicable"
)

// Outcome captures the evaluation of a single version.
type Outcome struct {
	Version     int           `json:"version"`
	FaultyLines []int         `json:"faultyLines"`
	Status      Status        `json:"status"`
	Rank        int           `json:"rank,omitempty"` // 1-indexed; set when Status is found
	Tolerance   int           `json:"tolerance"`
	TotalNodes  int           `json:"totalNodes"`
	Examined    int           `json:"examined"`         // terminal emissions looked at
	Winner      []string      `json:"winner,omitempty"` // members of the matching candidate
	Locations   []string      `json:"locations,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// NotApplicable returns the outcome of a version whose ground truth is the -1 sentinel.
func NotApplicable(fault corpus.Fault, totalNodes int) *Outcome {
	return &Outcome{
		Version:     fault.Version,
		FaultyLines: fault.Lines,
		Status:      StatusNotApplicable,
		Tolerance:   totalNodes,
		TotalNodes:  totalNodes,
	}
}

// RankField is the third rank-log column: the rank, ">tolerance" or "n/a".
func (o *Outcome) RankField() string {
	switch o.Status {
	case StatusFound:
		return fmt.Sprintf("%d", o.Rank)
	case StatusNotApplicable:
		return "n/a"
	default:
		return fmt.Sprintf(">%d", o.Tolerance)
	}
}

// LogLine renders the tab-separated rank-log record, without a newline.
func (o *Outcome) LogLine() string {
	fault := corpus.Fault{Version: o.Version, Lines: o.FaultyLines}
	return strings.Join([]string{
		fmt.Sprintf("%d", o.Version),
		fault.FormatLines(),
		o.RankField(),
		fmt.Sprintf("%d", o.TotalNodes),
	}, "\t")
}
