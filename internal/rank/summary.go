package rank

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TopK are the cut-offs reported by Summarize.
var TopK = []int{1, 5, 10}

// Summary aggregates outcomes across versions.
type Summary struct {
	Total    int           `json:"total"`
	Found    int           `json:"found"`
	Exceeded int           `json:"exceeded"`
	Skipped  int           `json:"skipped"` // not applicable
	MRR      float64       `json:"mrr"`     // over applicable versions; exceeded counts as 0
	MeanRank float64       `json:"meanRank,omitempty"`
	HitsAtK  map[int]int   `json:"hitsAtK"`
	Duration time.Duration `json:"duration"`

	Outcomes []*Outcome `json:"outcomes"`
}

// Summarize computes batch metrics. Outcomes are sorted by version.
func Summarize(outcomes []*Outcome) *Summary {
	s := &Summary{
		Total:    len(outcomes),
		HitsAtK:  make(map[int]int, len(TopK)),
		Outcomes: append([]*Outcome(nil), outcomes...),
	}
	sort.Slice(s.Outcomes, func(i, j int) bool { return s.Outcomes[i].Version < s.Outcomes[j].Version })

	var reciprocalRankSum float64
	rankSum := 0
	for _, o := range s.Outcomes {
		s.Duration += o.Duration
		switch o.Status {
		case StatusFound:
			s.Found++
			rankSum += o.Rank
			reciprocalRankSum += 1.0 / float64(o.Rank)
			for _, k := range TopK {
				if o.Rank <= k {
					s.HitsAtK[k]++
				}
			}
		case StatusExceeded:
			s.Exceeded++
		case StatusNotApplicable:
			s.Skipped++
		}
	}

	if applicable := s.Found + s.Exceeded; applicable > 0 {
		s.MRR = reciprocalRankSum / float64(applicable)
	}
	if s.Found > 0 {
		s.MeanRank = float64(rankSum) / float64(s.Found)
	}
	return s
}

// FormatReport generates a human-readable report.
func (s *Summary) FormatReport() string {
	var sb strings.Builder

	sb.WriteString("=== Fault Localization Report ===\n\n")
	fmt.Fprintf(&sb, "Versions:    %d\n", s.Total)
	fmt.Fprintf(&sb, "Found:       %d\n", s.Found)
	fmt.Fprintf(&sb, "Exceeded:    %d\n", s.Exceeded)
	fmt.Fprintf(&sb, "Skipped:     %d\n", s.Skipped)
	fmt.Fprintf(&sb, "MRR:         %.3f\n", s.MRR)
	if s.Found > 0 {
		fmt.Fprintf(&sb, "Mean Rank:   %.1f\n", s.MeanRank)
	}
	fmt.Fprintf(&sb, "Duration:    %v\n\n", s.Duration.Round(time.Millisecond))

	applicable := s.Found + s.Exceeded
	if applicable > 0 {
		sb.WriteString("Hits:\n")
		for _, k := range TopK {
			fmt.Fprintf(&sb, "  Top-%-3d %d (%.1f%%)\n", k, s.HitsAtK[k], float64(s.HitsAtK[k])/float64(applicable)*100)
		}
		sb.WriteString("\n")
	}

	exceeded := make([]*Outcome, 0)
	for _, o := range s.Outcomes {
		if o.Status == StatusExceeded {
			exceeded = append(exceeded, o)
		}
	}
	if len(exceeded) > 0 {
		sb.WriteString("Not Found Within Tolerance:\n")
		for _, o := range exceeded {
			fmt.Fprintf(&sb, "  [v%d] lines %v, examined %d of %d\n", o.Version, o.FaultyLines, o.Examined, o.Tolerance)
		}
	}

	return sb.String()
}

// JSON returns the summary as JSON.
func (s *Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
