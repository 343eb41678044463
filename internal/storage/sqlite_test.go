package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/popshot/internal/balance"
	"github.com/vovakirdan/popshot/internal/metrics"
	"github.com/vovakirdan/popshot/internal/report"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func batchAt(start time.Time, health float64) *report.Batch {
	b := report.NewBatch(report.Settings{Levels: []string{"meadow", "storm"}, Personas: []string{"casual", "chaotic"}, Runs: 10}, start)
	b.Finish([]balance.LevelOverview{
		{
			LevelID: "meadow", LevelName: "Meadow", Health: health,
			Recommendations: []string{balance.RecHarder},
			Personas: []balance.PersonaReport{
				{LevelID: "meadow", PersonaID: "casual", Classification: balance.TooEasy, Runs: 10, SuccessfulRuns: 10, Completions: 10,
					Observed: balance.Observed{CompletionRate: 1}, Summary: metrics.Summary{AvgScore: 300}, Health: health, Confidence: 0.33,
					Issues: []string{"completion rate 100% above target 50%-80%"}},
				{LevelID: "meadow", PersonaID: "chaotic", Classification: balance.Healthy, Runs: 10, SuccessfulRuns: 10, Completions: 5,
					Observed: balance.Observed{CompletionRate: 0.5}, Health: 1, Confidence: 0.33},
			},
		},
		{
			LevelID: "storm", LevelName: "Storm", Critical: true,
			CriticalIssues: []string{"1 persona(s) classify the level as broken"},
			Personas: []balance.PersonaReport{
				{LevelID: "storm", PersonaID: "casual", Classification: balance.Broken, Runs: 10, FailedRuns: 10},
			},
		},
	}, start.Add(time.Minute))
	return b
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreSaveAndRetrieveBatch(t *testing.T) {
	store := openStore(t)
	b := batchAt(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), 0.6)

	if err := store.SaveBatch(b); err != nil {
		t.Fatalf("SaveBatch() failed: %v", err)
	}

	got, err := store.LatestBatch()
	if err != nil {
		t.Fatalf("LatestBatch() failed: %v", err)
	}
	if got == nil || got.ID != b.ID {
		t.Fatalf("Expected latest batch %s, got %+v", b.ID, got)
	}
	if len(got.Levels) != 2 || got.Levels[0].Personas[0].Summary.AvgScore != 300 {
		t.Errorf("Batch document not preserved: %+v", got.Levels)
	}

	levels, err := store.LevelOverviews(b.ID)
	if err != nil {
		t.Fatalf("LevelOverviews() failed: %v", err)
	}
	if len(levels) != 2 || levels[0].LevelID != "meadow" || levels[1].LevelID != "storm" {
		t.Fatalf("Expected levels in report order, got %+v", levels)
	}
	if !levels[1].Critical || len(levels[1].CriticalIssues) != 1 {
		t.Errorf("Expected critical storm level, got %+v", levels[1])
	}
	if len(levels[0].Recommendations) != 1 || levels[0].Recommendations[0] != balance.RecHarder {
		t.Errorf("Expected recommendations to round-trip, got %v", levels[0].Recommendations)
	}

	all, err := store.PersonaReports(b.ID, "")
	if err != nil {
		t.Fatalf("PersonaReports() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 persona reports, got %d", len(all))
	}

	meadow, err := store.PersonaReports(b.ID, "meadow")
	if err != nil {
		t.Fatalf("PersonaReports() failed: %v", err)
	}
	if len(meadow) != 2 || meadow[0].PersonaID != "casual" || meadow[0].Classification != balance.TooEasy {
		t.Errorf("Unexpected meadow reports %+v", meadow)
	}
	if meadow[0].CompletionRate != 1 || meadow[0].AvgScore != 300 || len(meadow[0].Issues) != 1 {
		t.Errorf("Persona report fields not preserved: %+v", meadow[0])
	}
}

func TestStoreRecentBatches(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 5; i++ {
		b := batchAt(base.Add(time.Duration(i)*time.Hour), float64(i)/10)
		ids = append(ids, b.ID)
		if err := store.SaveBatch(b); err != nil {
			t.Fatalf("SaveBatch() failed: %v", err)
		}
	}

	recent, err := store.RecentBatches(3)
	if err != nil {
		t.Fatalf("RecentBatches() failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 batches with limit, got %d", len(recent))
	}
	if recent[0].ID != ids[4] || recent[2].ID != ids[2] {
		t.Errorf("Batches not newest first: %v", recent)
	}
	if recent[0].Sessions != 30 || recent[0].Failed != 10 || recent[0].CriticalLevels != 1 {
		t.Errorf("Unexpected totals %+v", recent[0])
	}
	if len(recent[0].Levels) != 2 || recent[0].Personas[1] != "chaotic" {
		t.Errorf("Unexpected selection %+v", recent[0])
	}
	if !recent[0].StartedAt.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("Expected start time to round-trip, got %v", recent[0].StartedAt)
	}

	latest, _ := store.LatestBatch()
	if latest.ID != ids[4] {
		t.Errorf("Expected latest batch %s, got %s", ids[4], latest.ID)
	}

	history, err := store.PairHistory("meadow", "casual", 2)
	if err != nil {
		t.Fatalf("PairHistory() failed: %v", err)
	}
	if len(history) != 2 || history[0].Health != 0.4 || history[1].Health != 0.3 {
		t.Errorf("Unexpected pair history %+v", history)
	}
}

func TestStoreBatchByPrefix(t *testing.T) {
	store := openStore(t)
	b := batchAt(time.Now(), 0.5)
	if err := store.SaveBatch(b); err != nil {
		t.Fatalf("SaveBatch() failed: %v", err)
	}

	got, err := store.Batch(b.ShortID())
	if err != nil || got == nil || got.ID != b.ID {
		t.Errorf("Expected batch by prefix, got %+v, %v", got, err)
	}

	missing, err := store.Batch("zzzz")
	if err != nil || missing != nil {
		t.Errorf("Expected nil for unknown prefix, got %+v, %v", missing, err)
	}
}

func TestStoreEmpty(t *testing.T) {
	store := openStore(t)

	latest, err := store.LatestBatch()
	if err != nil || latest != nil {
		t.Errorf("Expected no batch, got %+v, %v", latest, err)
	}
	recent, err := store.RecentBatches(0)
	if err != nil || len(recent) != 0 {
		t.Errorf("Expected no batches, got %v, %v", recent, err)
	}
}

func TestStoreDuplicateBatchRollsBack(t *testing.T) {
	store := openStore(t)
	b := batchAt(time.Now(), 0.5)
	if err := store.SaveBatch(b); err != nil {
		t.Fatalf("SaveBatch() failed: %v", err)
	}
	if err := store.SaveBatch(b); err == nil {
		t.Fatal("Expected error saving the same batch twice")
	}

	all, _ := store.PersonaReports(b.ID, "")
	if len(all) != 3 {
		t.Errorf("Expected failed save to leave 3 reports, got %d", len(all))
	}

	if err := store.DeleteBatch(b.ID); err != nil {
		t.Fatalf("DeleteBatch() failed: %v", err)
	}
	if got, _ := store.LatestBatch(); got != nil {
		t.Error("Expected no batch after delete")
	}
}

func TestStoreDeleteBatchRemovesReports(t *testing.T) {
	store := openStore(t)
	keep := batchAt(time.Now().Add(-time.Hour), 0.9)
	drop := batchAt(time.Now(), 0.4)
	for _, b := range []*report.Batch{keep, drop} {
		if err := store.SaveBatch(b); err != nil {
			t.Fatalf("SaveBatch() failed: %v", err)
		}
	}

	if err := store.DeleteBatch(drop.ID); err != nil {
		t.Fatalf("DeleteBatch() failed: %v", err)
	}

	if reports, _ := store.PersonaReports(drop.ID, ""); len(reports) != 0 {
		t.Errorf("Expected no persona reports for deleted batch, got %d", len(reports))
	}
	if levels, _ := store.LevelOverviews(drop.ID); len(levels) != 0 {
		t.Errorf("Expected no level overviews for deleted batch, got %d", len(levels))
	}
	if reports, _ := store.PersonaReports(keep.ID, ""); len(reports) != 3 {
		t.Errorf("Expected 3 persona reports for kept batch, got %d", len(reports))
	}
	got, err := store.LatestBatch()
	if err != nil || got == nil || got.ID != keep.ID {
		t.Errorf("Expected latest batch %s, got %v (err %v)", keep.ID, got, err)
	}
}

func TestStoreEnforcesForeignKeys(t *testing.T) {
	store := openStore(t)
	var on int
	if err := store.db.QueryRow("PRAGMA foreign_keys").Scan(&on); err != nil {
		t.Fatalf("PRAGMA foreign_keys failed: %v", err)
	}
	if on != 1 {
		t.Errorf("Expected foreign keys enabled, got %d", on)
	}
}
