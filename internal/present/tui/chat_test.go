package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/classkit/internal/chat"
	"github.com/mithrel/classkit/internal/llm"
)

type stubClient struct{}

func (stubClient) Stream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	d := make(chan string)
	e := make(chan error, 1)
	close(d)
	close(e)
	return d, e
}

func testModel(t *testing.T) model {
	t.Helper()
	a, err := chat.Lookup("qa")
	require.NoError(t, err)
	m := newModel(context.Background(), chat.NewSession(a, stubClient{}, chat.Options{}))
	t.Cleanup(m.cancel)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(model)
}

func typeText(m model, s string) model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(model)
}

func TestWelcomeIsFirstBubble(t *testing.T) {
	m := testModel(t)
	require.Len(t, m.bubbles, 1)
	assert.Equal(t, roleAssistant, m.bubbles[0].role)
	assert.Contains(t, m.View(), "课堂答疑智能体")
}

func TestEnterStartsTurnAndDisablesInput(t *testing.T) {
	m := testModel(t)
	m = typeText(m, "串口没有输出")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())
	require.Len(t, m.bubbles, 2)
	assert.Equal(t, bubble{role: roleUser, text: "串口没有输出"}, m.bubbles[1])

	// typing and enter are ignored while the reply streams
	m = typeText(m, "more")
	assert.Empty(t, m.input.Value())
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	assert.Nil(t, cmd)
	assert.Len(t, m.bubbles, 2)

	next, _ = m.Update(sourceMsg{text: "**先检查**波特率"})
	m = next.(model)
	assert.Equal(t, "**先检查**波特率", m.streaming)

	next, _ = m.Update(renderMsg{html: "<strong>先检查</strong>波特率"})
	m = next.(model)
	assert.Equal(t, "<strong>先检查</strong>波特率", m.lastHTML)

	next, _ = m.Update(turnDoneMsg{turn: chat.Turn{Reply: "**先检查**波特率", Chunks: 2, Elapsed: time.Second}})
	m = next.(model)
	assert.False(t, m.busy)
	assert.Empty(t, m.streaming)
	require.Len(t, m.bubbles, 3)
	assert.Equal(t, "**先检查**波特率", m.bubbles[2].text)
	assert.Contains(t, m.status, "2")
}

func TestFailedTurnShowsApology(t *testing.T) {
	m := testModel(t)
	m = typeText(m, "hi")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)

	next, _ = m.Update(turnDoneMsg{turn: chat.Turn{Err: errors.New("boom")}})
	m = next.(model)
	require.Len(t, m.bubbles, 3)
	assert.Equal(t, chat.Apology(errors.New("boom")), m.bubbles[2].text)
	assert.False(t, m.busy)
}

func TestBlankInputIsNotSent(t *testing.T) {
	m := testModel(t)
	m = typeText(m, "   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	assert.Len(t, m.bubbles, 1)
}
