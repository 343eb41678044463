// Package report holds the document written at the end of a balance batch
// and renders it in the supported output formats.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/popshot/internal/balance"
)

// Settings records how a batch was run.
type Settings struct {
	Levels      []string      `json:"levels" yaml:"levels"`
	Personas    []string      `json:"personas" yaml:"personas"`
	Runs        int           `json:"runs" yaml:"runs"`
	Parallelism int           `json:"parallelism" yaml:"parallelism"`
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxWallTime time.Duration `json:"maxWallTime" yaml:"maxWallTime"`
	Seed        int64         `json:"seed" yaml:"seed"`
}

// Batch is the outcome of one batch invocation.
type Batch struct {
	ID         string                  `json:"id" yaml:"id"`
	StartedAt  time.Time               `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time               `json:"finishedAt" yaml:"finishedAt"`
	Settings   Settings                `json:"settings" yaml:"settings"`
	Levels     []balance.LevelOverview `json:"levels" yaml:"levels"`
}

// NewBatch starts a batch document with a fresh id.
func NewBatch(settings Settings, startedAt time.Time) *Batch {
	return &Batch{
		ID:        uuid.NewString(),
		StartedAt: startedAt,
		Settings:  settings,
	}
}

// Finish stores the level overviews and the finish time.
func (b *Batch) Finish(levels []balance.LevelOverview, finishedAt time.Time) {
	b.Levels = levels
	b.FinishedAt = finishedAt
}

// Duration returns the wall-clock duration of the batch.
func (b *Batch) Duration() time.Duration {
	if b.FinishedAt.Before(b.StartedAt) {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

// Totals are batch-wide counts.
type Totals struct {
	Sessions       int
	Successful     int
	Failed         int
	Completions    int
	CriticalLevels int
	Classes        map[balance.Classification]int
}

// Totals sums the persona reports of every level.
func (b *Batch) Totals() Totals {
	t := Totals{Classes: make(map[balance.Classification]int)}
	for _, l := range b.Levels {
		if l.Critical {
			t.CriticalLevels++
		}
		for _, p := range l.Personas {
			t.Sessions += p.Runs
			t.Successful += p.SuccessfulRuns
			t.Failed += p.FailedRuns
			t.Completions += p.Completions
			t.Classes[p.Classification]++
		}
	}
	return t
}

// ShortID returns the first block of the batch id.
func (b *Batch) ShortID() string {
	return ShortID(b.ID)
}

// ShortID shortens a UUID for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
