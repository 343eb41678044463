package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/vovakirdan/popshot/internal/balance"
	"github.com/vovakirdan/popshot/internal/report"
)

// Browser layout constants
const (
	minWidthForSidebar = 90 // Minimum width to show the level sidebar
	sidebarWidth       = 24 // Width of the level sidebar
	chromeHeight       = 12 // Rows taken by title, level summary and help
)

// BrowserModel is the Bubble Tea model of the read-only report browser.
type BrowserModel struct {
	batch       *report.Batch
	levelCursor int
	table       table.Model
	help        help.Model
	keys        BrowserKeyMap
	width       int
	height      int
	quitting    bool
	showSidebar bool
	showDetail  bool
}

// NewBrowserModel creates a browser over b. A nil batch shows an empty
// state.
func NewBrowserModel(b *report.Batch, width, height int) BrowserModel {
	h := help.New()
	h.ShowAll = false
	h.Width = width

	m := BrowserModel{
		batch:       b,
		keys:        DefaultBrowserKeyMap(),
		help:        h,
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}
	m.table = m.createTable()
	m.updateTableRows()
	return m
}

// createTable creates the persona table sized for the current window.
func (m *BrowserModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Persona", Width: 12},
		{Title: "Verdict", Width: 13},
		{Title: "Compl.", Width: 7},
		{Title: "Score", Width: 8},
		{Title: "Health", Width: 7},
		{Title: "Runs", Width: 6},
		{Title: "Failed", Width: 7},
		{Title: "Conf.", Width: 6},
	}

	height := m.height - chromeHeight
	if m.showDetail {
		height -= 6
	}
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// levels returns the browsed level overviews.
func (m BrowserModel) levels() []balance.LevelOverview {
	if m.batch == nil {
		return nil
	}
	return m.batch.Levels
}

// currentLevel returns the selected level, if any.
func (m BrowserModel) currentLevel() (balance.LevelOverview, bool) {
	ls := m.levels()
	if len(ls) == 0 {
		return balance.LevelOverview{}, false
	}
	return ls[m.levelCursor], true
}

// currentPersona returns the persona report under the table cursor.
func (m BrowserModel) currentPersona() (balance.PersonaReport, bool) {
	l, ok := m.currentLevel()
	if !ok || len(l.Personas) == 0 {
		return balance.PersonaReport{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(l.Personas) {
		return balance.PersonaReport{}, false
	}
	return l.Personas[i], true
}

// updateTableRows fills the table with the selected level's personas.
func (m *BrowserModel) updateTableRows() {
	l, ok := m.currentLevel()
	if !ok {
		m.table.SetRows(nil)
		return
	}
	rows := make([]table.Row, len(l.Personas))
	for i, p := range l.Personas {
		rows[i] = table.Row{
			truncate(p.PersonaID, 12),
			string(p.Classification),
			report.Percent(p.Observed.CompletionRate),
			fmt.Sprintf("%.1f", p.Summary.AvgScore),
			fmt.Sprintf("%.2f", p.Health),
			humanize.Comma(int64(p.Runs)),
			humanize.Comma(int64(p.FailedRuns)),
			fmt.Sprintf("%.2f", p.Confidence),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *BrowserModel) moveLevel(delta int) {
	n := len(m.levels())
	if n == 0 {
		return
	}
	m.levelCursor = (m.levelCursor + delta + n) % n
	m.updateTableRows()
}

// Init initializes the browser.
func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the browser.
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextLevel):
			m.moveLevel(1)
			return m, nil

		case key.Matches(msg, m.keys.PrevLevel):
			m.moveLevel(-1)
			return m, nil

		case key.Matches(msg, m.keys.Detail):
			m.showDetail = !m.showDetail
			cursor := m.table.Cursor()
			m.table = m.createTable()
			m.updateTableRows()
			m.table.SetCursor(cursor)
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the browser.
func (m BrowserModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "BALANCE REPORT"
	if m.batch != nil {
		title = fmt.Sprintf("BALANCE REPORT %s - %s", m.batch.ShortID(), m.batch.StartedAt.Format("Jan 02 15:04"))
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	if _, ok := m.currentLevel(); !ok {
		b.WriteString(panelStyle.Render(mutedStyle.Italic(true).Padding(2, 4).Render(
			"No batch results stored yet.\nRun `popshot batch` to analyze levels.")))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
		return b.String()
	}

	if m.showSidebar {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), "  ", m.renderMain()))
	} else {
		b.WriteString(m.renderTabs())
		b.WriteString("\n\n")
		b.WriteString(m.renderMain())
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// renderSidebar lists the levels with their health.
func (m BrowserModel) renderSidebar() string {
	var sb strings.Builder
	sb.WriteString("Levels\n")
	sb.WriteString(strings.Repeat("-", sidebarWidth-4))
	sb.WriteString("\n")

	for i, l := range m.levels() {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.levelCursor {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}
		name := truncate(l.LevelName, sidebarWidth-12)
		line := fmt.Sprintf("%s%-*s %.2f", cursor, sidebarWidth-12, name, l.Health)
		if l.Critical {
			line += criticalStyle.Render("!")
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}

	return panelStyle.Width(sidebarWidth).Render(sb.String())
}

// renderTabs shows the current level with arrows on narrow terminals.
func (m BrowserModel) renderTabs() string {
	l, _ := m.currentLevel()
	return centerText(fmt.Sprintf("< %s (%d/%d) >", l.LevelName, m.levelCursor+1, len(m.levels())), m.width)
}

// renderMain renders the level summary, the persona table and details.
func (m BrowserModel) renderMain() string {
	l, _ := m.currentLevel()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)  health %s %.2f\n", l.LevelName, l.LevelID, healthBar(l.Health, 10), l.Health)
	for _, issue := range l.CriticalIssues {
		sb.WriteString(criticalStyle.Render("! " + issue))
		sb.WriteString("\n")
	}
	if len(l.Recommendations) > 0 {
		sb.WriteString(mutedStyle.Render("Recommended: " + strings.Join(l.Recommendations, "; ")))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.table.View())

	if m.showDetail {
		sb.WriteString("\n\n")
		sb.WriteString(m.renderDetail())
	}
	return panelStyle.Render(sb.String())
}

// renderDetail shows the issues of the selected persona.
func (m BrowserModel) renderDetail() string {
	p, ok := m.currentPersona()
	if !ok {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s  (%d of %d runs succeeded, confidence %.2f)\n",
		p.PersonaName, renderClass(p.Classification), p.SuccessfulRuns, p.Runs, p.Confidence)
	if len(p.Issues) == 0 {
		sb.WriteString(mutedStyle.Render("  every target range met"))
		sb.WriteString("\n")
	}
	for _, issue := range p.Issues {
		sb.WriteString("  - " + issue + "\n")
	}
	for _, e := range p.Errors {
		sb.WriteString(criticalStyle.Render("  x "+e) + "\n")
	}
	for _, r := range p.Recommendations {
		sb.WriteString("  * " + r + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// IsQuitting returns true if the user closed the browser.
func (m BrowserModel) IsQuitting() bool {
	return m.quitting
}

// RunBrowser runs the report browser for b.
func RunBrowser(b *report.Batch) error {
	model := NewBrowserModel(b, 100, 30)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
