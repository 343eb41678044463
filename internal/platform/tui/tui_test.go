package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/popshot/internal/balance"
	"github.com/vovakirdan/popshot/internal/metrics"
	"github.com/vovakirdan/popshot/internal/report"
	"github.com/vovakirdan/popshot/internal/sim"
)

func testBatch() *report.Batch {
	b := report.NewBatch(report.Settings{Runs: 5}, time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC))
	b.Finish([]balance.LevelOverview{
		{
			LevelID: "meadow", LevelName: "Meadow", Health: 0.9,
			Personas: []balance.PersonaReport{
				{PersonaID: "casual", PersonaName: "Casual Player", Classification: balance.Healthy, Runs: 5, SuccessfulRuns: 5, Health: 1},
				{PersonaID: "chaotic", PersonaName: "Chaotic Player", Classification: balance.NeedsReview, Runs: 5, SuccessfulRuns: 5,
					Issues: []string{"flow state 0.10 below target 0.20-0.90"}},
			},
		},
		{
			LevelID: "storm", LevelName: "Storm", Health: 0.1, Critical: true,
			CriticalIssues: []string{"1 persona(s) classify the level as broken"},
			Personas: []balance.PersonaReport{
				{PersonaID: "casual", PersonaName: "Casual Player", Classification: balance.Broken, Runs: 5, FailedRuns: 5,
					Errors: []string{"balance: session exceeded hard deadline"}},
			},
		},
	}, time.Date(2026, 4, 2, 9, 31, 0, 0, time.UTC))
	return b
}

func press(m tea.Model, k string) tea.Model {
	var msg tea.KeyMsg
	switch k {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next
}

func TestBrowserNavigatesLevels(t *testing.T) {
	var m tea.Model = NewBrowserModel(testBatch(), 120, 40)

	view := m.View()
	if !strings.Contains(view, "Meadow (meadow)") || !strings.Contains(view, "chaotic") {
		t.Errorf("Expected first level in view:\n%s", view)
	}

	m = press(m, "tab")
	view = m.View()
	if !strings.Contains(view, "Storm (storm)") || !strings.Contains(view, "classify the level as broken") {
		t.Errorf("Expected second level with critical issue:\n%s", view)
	}

	m = press(m, "tab")
	if bm := m.(BrowserModel); bm.levelCursor != 0 {
		t.Errorf("Expected level cursor to wrap to 0, got %d", bm.levelCursor)
	}
	m = press(m, "shift+tab")
	if bm := m.(BrowserModel); bm.levelCursor != 1 {
		t.Errorf("Expected level cursor to wrap back to 1, got %d", bm.levelCursor)
	}
}

func TestBrowserDetail(t *testing.T) {
	var m tea.Model = NewBrowserModel(testBatch(), 120, 40)
	m = press(m, "down")
	m = press(m, "enter")

	view := m.View()
	if !strings.Contains(view, "flow state 0.10 below target") {
		t.Errorf("Expected detail of the selected persona:\n%s", view)
	}

	m = press(m, "q")
	if !m.(BrowserModel).IsQuitting() || m.View() != "" {
		t.Error("Expected q to quit with an empty view")
	}
}

func TestBrowserNarrowAndEmpty(t *testing.T) {
	m := NewBrowserModel(testBatch(), 60, 30)
	if m.showSidebar {
		t.Error("Expected no sidebar on a narrow terminal")
	}
	if !strings.Contains(m.View(), "< Meadow (1/2) >") {
		t.Errorf("Expected level tabs:\n%s", m.View())
	}

	empty := NewBrowserModel(nil, 100, 30)
	if !strings.Contains(empty.View(), "No batch results stored yet") {
		t.Errorf("Expected empty state:\n%s", empty.View())
	}
	press(empty, "tab")
}

func TestProgressCounts(t *testing.T) {
	cancelled := false
	var m tea.Model = NewProgressModel(4, func() { cancelled = true })

	ok := sim.Result{Success: true, Metrics: metrics.AIMetrics{LevelCompleted: true}}
	m, _ = m.Update(ProgressMsg(balance.Progress{LevelID: "meadow", PersonaID: "casual", Done: 1, Total: 4, Result: ok}))
	m, _ = m.Update(ProgressMsg(balance.Progress{LevelID: "meadow", PersonaID: "casual", Done: 2, Total: 4, Result: sim.ErrorResult("meadow", "casual", errors.New("x"))}))

	pm := m.(ProgressModel)
	if pm.Percent() != 0.5 || pm.failed != 1 {
		t.Errorf("Expected half done with one failure, got %.2f/%d", pm.Percent(), pm.failed)
	}
	if pc := pm.pairs["meadow/casual"]; pc.done != 2 || pc.completed != 1 || pc.failed != 1 {
		t.Errorf("Unexpected pair counts %+v", pc)
	}
	if !strings.Contains(pm.View(), "2/4 sessions, 1 failed") {
		t.Errorf("Unexpected view:\n%s", pm.View())
	}

	m = press(m, "q")
	if !cancelled || !m.(ProgressModel).cancelled {
		t.Error("Expected q to cancel the batch")
	}

	m, cmd := m.Update(DoneMsg{Err: context.Canceled})
	if cmd == nil {
		t.Fatal("Expected quit command after DoneMsg")
	}
	if _, err := m.(ProgressModel).Result(); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation error, got %v", err)
	}
}

func TestHealthBar(t *testing.T) {
	if got := healthBar(0.5, 10); got != "#####....." {
		t.Errorf("Expected half bar, got %q", got)
	}
	if got := healthBar(2, 4); got != "####" {
		t.Errorf("Expected clamped bar, got %q", got)
	}
	if got := truncate("chaotic-player", 8); got != "chaotic." {
		t.Errorf("Expected truncated name, got %q", got)
	}
}

func TestSSHServerSources(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultSSHServerConfig()
	cfg.Address = "127.0.0.1:0"
	cfg.HostKeyPath = filepath.Join(dir, "keys", "host_key")
	cfg.DBPath = filepath.Join(dir, "results.db")

	srv, err := NewSSHServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewSSHServer failed: %v", err)
	}
	b, err := srv.source()
	if err != nil || b != nil {
		t.Errorf("Expected no batch from an empty store, got %v, %v", b, err)
	}
	if srv.Addr() != "127.0.0.1:0" {
		t.Errorf("Expected configured address, got %s", srv.Addr())
	}
	if err := srv.Shutdown(); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	if srv.store != nil {
		t.Error("Expected Shutdown to release the store")
	}

	want := testBatch()
	fixed, err := NewSSHServerWithSource(cfg, func() (*report.Batch, error) { return want, nil }, nil)
	if err != nil {
		t.Fatalf("NewSSHServerWithSource failed: %v", err)
	}
	if got, _ := fixed.source(); got != want {
		t.Error("Expected the injected batch source")
	}
}
