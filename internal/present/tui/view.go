package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D4FF")).Padding(0, 1)
	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	aiLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D4FF"))
	userTextStyle  = lipgloss.NewStyle().PaddingLeft(2)
	statusStyle    = lipgloss.NewStyle().Faint(true)
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D4FF"))
)

func (m model) View() string {
	if !m.ready {
		return "\n  加载中…"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.sess.Agent.Title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + statusStyle.Render(" 正在回复…"))
	} else {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderTranscript() string {
	var b strings.Builder
	for _, bb := range m.bubbles {
		m.writeBubble(&b, bb)
	}
	if m.busy && m.streaming != "" {
		m.writeBubble(&b, bubble{role: roleAssistant, text: m.streaming})
	}
	return b.String()
}

func (m model) writeBubble(b *strings.Builder, bb bubble) {
	switch bb.role {
	case roleUser:
		b.WriteString(userLabelStyle.Render("我") + "\n")
		b.WriteString(userTextStyle.Render(bb.text))
		b.WriteString("\n\n")
	default:
		b.WriteString(aiLabelStyle.Render("AI") + "\n")
		b.WriteString(m.renderMarkdown(bb.text))
		b.WriteString("\n")
	}
}

// renderMarkdown falls back to the raw text when glamour is unavailable or
// fails on a partial buffer.
func (m model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
