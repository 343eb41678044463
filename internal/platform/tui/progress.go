package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/popshot/internal/balance"
)

const (
	progressRate = 4 // Repaints per second
	maxPairRows  = 12
)

// ProgressMsg reports one finished session.
type ProgressMsg balance.Progress

// DoneMsg ends the progress view with the batch outcome.
type DoneMsg struct {
	Levels []balance.LevelOverview
	Err    error
}

type pairCount struct {
	done      int
	completed int
	failed    int
}

// ProgressModel shows the progress of a running batch.
type ProgressModel struct {
	bar       progress.Model
	help      help.Model
	keys      ProgressKeyMap
	cancel    context.CancelFunc
	total     int
	done      int
	failed    int
	pairs     map[string]*pairCount
	order     []string
	start     time.Time
	now       time.Time
	cancelled bool
	finished  bool
	levels    []balance.LevelOverview
	err       error
}

// NewProgressModel creates a progress view for total sessions. cancel is
// called when the user aborts the batch.
func NewProgressModel(total int, cancel context.CancelFunc) ProgressModel {
	now := time.Now()
	return ProgressModel{
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		help:   help.New(),
		keys:   DefaultProgressKeyMap(),
		cancel: cancel,
		total:  total,
		pairs:  make(map[string]*pairCount),
		start:  now,
		now:    now,
	}
}

// Init starts the repaint ticker.
func (m ProgressModel) Init() tea.Cmd {
	return tickCmd(progressRate)
}

// Update handles messages for the progress view.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.done = msg.Done
		k := msg.LevelID + "/" + msg.PersonaID
		pc, ok := m.pairs[k]
		if !ok {
			pc = &pairCount{}
			m.pairs[k] = pc
			m.order = append(m.order, k)
		}
		pc.done++
		switch {
		case !msg.Result.Success:
			pc.failed++
			m.failed++
		case msg.Result.Metrics.LevelCompleted:
			pc.completed++
		}
		return m, nil

	case DoneMsg:
		m.finished = true
		m.levels = msg.Levels
		m.err = msg.Err
		return m, tea.Quit

	case TickMsg:
		m.now = time.Time(msg)
		if m.finished {
			return m, nil
		}
		return m, tickCmd(progressRate)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.cancelled {
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		w := msg.Width - 10
		if w > 80 {
			w = 80
		}
		if w > 10 {
			m.bar.Width = w
		}
		return m, nil
	}
	return m, nil
}

// Percent returns the finished fraction of the batch.
func (m ProgressModel) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// View renders the progress view.
func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Balance batch"))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString("\n")
	elapsed := m.now.Sub(m.start).Round(time.Second)
	fmt.Fprintf(&b, "%d/%d sessions, %d failed, %s elapsed\n\n", m.done, m.total, m.failed, elapsed)

	rows := m.order
	if len(rows) > maxPairRows {
		rows = rows[len(rows)-maxPairRows:]
	}
	for _, k := range rows {
		pc := m.pairs[k]
		fmt.Fprintf(&b, "  %-32s %4d done %4d completed %4d failed\n", truncate(k, 32), pc.done, pc.completed, pc.failed)
	}

	b.WriteString("\n")
	if m.cancelled {
		b.WriteString(criticalStyle.Render("cancelling..."))
	} else {
		b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
	}
	b.WriteString("\n")
	return b.String()
}

// Result returns the outcome delivered by DoneMsg.
func (m ProgressModel) Result() ([]balance.LevelOverview, error) {
	return m.levels, m.err
}

// RunFunc runs a batch, reporting each finished session to onProgress.
type RunFunc func(ctx context.Context, onProgress func(balance.Progress)) ([]balance.LevelOverview, error)

// RunProgress runs fn while showing the progress view on out.
func RunProgress(ctx context.Context, out io.Writer, total int, fn RunFunc) ([]balance.LevelOverview, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		NewProgressModel(total, cancel),
		tea.WithOutput(out),
	)

	go func() {
		levels, err := fn(ctx, func(pr balance.Progress) {
			p.Send(ProgressMsg(pr))
		})
		p.Send(DoneMsg{Levels: levels, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(ProgressModel)
	if !ok {
		return nil, fmt.Errorf("tui: unexpected model %T", final)
	}
	return m.Result()
}
