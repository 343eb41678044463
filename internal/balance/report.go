// Package balance runs many simulation sessions per (level, persona) pair,
// compares the aggregated metrics with each persona's target ranges and
// classifies the pair.
package balance

import (
	"errors"

	"github.com/vovakirdan/popshot/internal/metrics"
)

// ErrNoSuccessfulRuns marks a pair whose every run failed. It is reported
// with zero confidence and never fatal to a batch.
var ErrNoSuccessfulRuns = errors.New("balance: no successful runs")

// Classification is the verdict for one (level, persona) pair.
type Classification string

const (
	Healthy     Classification = "healthy"
	TooEasy     Classification = "too_easy"
	TooHard     Classification = "too_hard"
	NeedsReview Classification = "needs_review"
	Broken      Classification = "broken"
)

// Classifications lists every verdict in report order.
func Classifications() []Classification {
	return []Classification{Healthy, TooEasy, TooHard, NeedsReview, Broken}
}

// Observed are the aggregate values compared against persona ranges.
type Observed struct {
	CompletionRate  float64 `json:"completionRate" yaml:"completionRate"`
	Attempts        float64 `json:"attempts" yaml:"attempts"` // 1 / completion rate, 0 when nothing completed
	SessionDuration float64 `json:"sessionDuration" yaml:"sessionDuration"`
	Satisfaction    float64 `json:"satisfaction" yaml:"satisfaction"`
	CognitiveLoad   float64 `json:"cognitiveLoad" yaml:"cognitiveLoad"`
	FlowState       float64 `json:"flowState" yaml:"flowState"`
}

// PersonaReport is the balance verdict of one persona on one level.
type PersonaReport struct {
	LevelID         string          `json:"levelId" yaml:"levelId"`
	PersonaID       string          `json:"personaId" yaml:"personaId"`
	PersonaName     string          `json:"personaName" yaml:"personaName"`
	Runs            int             `json:"runs" yaml:"runs"`
	SuccessfulRuns  int             `json:"successfulRuns" yaml:"successfulRuns"`
	FailedRuns      int             `json:"failedRuns" yaml:"failedRuns"`
	Completions     int             `json:"completions" yaml:"completions"`
	Observed        Observed        `json:"observed" yaml:"observed"`
	Summary         metrics.Summary `json:"summary" yaml:"summary"`
	Classification  Classification  `json:"classification" yaml:"classification"`
	Health          float64         `json:"health" yaml:"health"`
	Confidence      float64         `json:"confidence" yaml:"confidence"`
	Issues          []string        `json:"issues,omitempty" yaml:"issues,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Errors          []string        `json:"errors,omitempty" yaml:"errors,omitempty"` // Distinct run error messages
}

// Err returns ErrNoSuccessfulRuns when no run of the pair succeeded.
func (r PersonaReport) Err() error {
	if r.SuccessfulRuns == 0 {
		return ErrNoSuccessfulRuns
	}
	return nil
}

// LevelOverview combines the persona reports of one level.
type LevelOverview struct {
	LevelID         string                 `json:"levelId" yaml:"levelId"`
	LevelName       string                 `json:"levelName" yaml:"levelName"`
	Health          float64                `json:"health" yaml:"health"`
	Critical        bool                   `json:"critical" yaml:"critical"`
	CriticalIssues  []string               `json:"criticalIssues,omitempty" yaml:"criticalIssues,omitempty"`
	Recommendations []string               `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Counts          map[Classification]int `json:"counts" yaml:"counts"`
	Personas        []PersonaReport        `json:"personas" yaml:"personas"`
}
