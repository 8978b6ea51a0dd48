package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/classkit/pkg/api"
)

func sample() []api.Submission {
	return []api.Submission{
		{
			ReportID:    "RPT-AAAA1111",
			StudentInfo: api.StudentInfo{Name: "张三", ID: "2024001", Group: "3"},
			Steps:       []api.StepResult{{Step: 1, Status: "success"}, {Step: 2, Status: "fail"}},
			Answers:     api.Answers{Q1: "answer one"},
			SubmittedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		},
		{ReportID: "RPT-BBBB2222", StudentInfo: api.StudentInfo{Name: "李四", ID: "2024002", Group: "4"}},
	}
}

func TestRows(t *testing.T) {
	r := rows(sample())
	require.Len(t, r, 2)
	assert.Equal(t, "RPT-AAAA1111", r[0][0])
	assert.Equal(t, "张三", r[0][2])
	assert.Equal(t, "1/2", r[0][5])
	assert.Equal(t, "0/0", r[1][5])
}

func TestEnterOpensReport(t *testing.T) {
	var m tea.Model = newModel(sample())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	mm := m.(model)
	require.True(t, mm.open)
	assert.Contains(t, mm.View(), "RPT-AAAA1111")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.(model).open)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestEmptyView(t *testing.T) {
	assert.Equal(t, "(no submissions)\n", newModel(nil).View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "张三李…", truncate("张三李四五", 4))
}
