// Package ui holds the interactive browser for recorded submissions.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/classkit/internal/present/format"
	"github.com/mithrel/classkit/pkg/api"
)

// BrowseSubmissions opens a table of submissions; enter shows the report of
// the selected row.
func BrowseSubmissions(ctx context.Context, subs []api.Submission) error {
	p := tea.NewProgram(newModel(subs), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

var detailHint = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

type model struct {
	subs   []api.Submission
	table  table.Model
	detail viewport.Model
	open   bool
	width  int
	height int
}

func newModel(subs []api.Submission) model {
	t := table.New(
		table.WithColumns(columns()),
		table.WithRows(rows(subs)),
		table.WithFocused(true),
		table.WithHeight(min(12, max(3, len(subs)+3))),
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

	return model{subs: subs, table: t, detail: viewport.New(80, 20), width: 80, height: 24}
}

func columns() []table.Column {
	return []table.Column{
		{Title: "Report", Width: 12},
		{Title: "Student ID", Width: 12},
		{Title: "Name", Width: 12},
		{Title: "Group", Width: 6},
		{Title: "Submitted", Width: 16},
		{Title: "Steps", Width: 5},
	}
}

func rows(subs []api.Submission) []table.Row {
	out := make([]table.Row, 0, len(subs))
	for _, s := range subs {
		out = append(out, table.Row{
			s.ReportID,
			truncate(s.StudentInfo.ID, 12),
			truncate(s.StudentInfo.Name, 12),
			truncate(s.StudentInfo.Group, 6),
			s.SubmittedAt.Local().Format("2006-01-02 15:04"),
			format.StepsOK(s.Steps),
		})
	}
	return out
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detail.Width = msg.Width
		m.detail.Height = max(3, msg.Height-2)
	case tea.KeyMsg:
		if m.open {
			switch msg.String() {
			case "q", "esc", "enter", "backspace":
				m.open = false
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if i := m.table.Cursor(); i >= 0 && i < len(m.subs) {
				m.detail.SetContent(report(m.subs[i]))
				m.detail.GotoTop()
				m.open = true
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.open {
		return m.detail.View() + "\n" + detailHint.Render("↑/↓ scroll • enter/esc back • ctrl+c exit") + "\n"
	}
	if len(m.subs) == 0 {
		return "(no submissions)\n"
	}
	return m.table.View() + "\n↑/↓ to navigate • enter to open • q to exit\n"
}

// report renders one submission for the detail pane.
func report(s api.Submission) string {
	var b strings.Builder
	if err := format.WritePrettySubmission(&b, s); err != nil {
		return err.Error()
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
