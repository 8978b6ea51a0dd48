package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mithrel/classkit/internal/chat"
)

// sourceMsg carries the reply buffer after each fragment.
type sourceMsg struct{ text string }

// renderMsg carries the HTML render output after each fragment.
type renderMsg struct{ html string }

// turnDoneMsg ends a turn; err is set when the turn was rejected.
type turnDoneMsg struct {
	turn chat.Turn
	err  error
}

// programSink forwards session updates into the program's update channel.
type programSink struct{ ch chan<- tea.Msg }

func (s programSink) Update(html string)       { s.ch <- renderMsg{html: html} }
func (s programSink) UpdateSource(text string) { s.ch <- sourceMsg{text: text} }

// startTurn runs the turn in the background. Every update, and finally
// turnDoneMsg, goes through ch so they reach Update in order.
func startTurn(ctx context.Context, sess *chat.Session, text string, ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			turn, err := sess.Send(ctx, text, programSink{ch: ch})
			ch <- turnDoneMsg{turn: turn, err: err}
		}()
		return nil
	}
}

func waitForUpdate(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func formatTurnStatus(t chat.Turn) string {
	return fmt.Sprintf("%d 个片段 · %s", t.Chunks, t.Elapsed.Round(10*time.Millisecond))
}
