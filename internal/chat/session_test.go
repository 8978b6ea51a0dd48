package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mithrel/classkit/internal/llm"
	"github.com/mithrel/classkit/pkg/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	deltas []string
	err    error
	gate   chan struct{}

	mu   sync.Mutex
	reqs []llm.Request
}

func (f *fakeClient) Stream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	deltas := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(deltas)
		for _, d := range f.deltas {
			select {
			case deltas <- d:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if f.gate != nil {
			select {
			case <-f.gate:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if f.err != nil {
			errs <- f.err
		}
	}()
	return deltas, errs
}

func (f *fakeClient) requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.reqs...)
}

type recorder struct {
	mu      sync.Mutex
	renders []string
}

func (r *recorder) Update(html string) {
	r.mu.Lock()
	r.renders = append(r.renders, html)
	r.mu.Unlock()
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.renders) == 0 {
		return ""
	}
	return r.renders[len(r.renders)-1]
}

func newTestSession(t *testing.T, name string, c llm.Client) *Session {
	t.Helper()
	a, err := Lookup(name)
	require.NoError(t, err)
	return NewSession(a, c, Options{})
}

func TestSendStreamsRenders(t *testing.T) {
	fc := &fakeClient{deltas: []string{"**Hel", "lo** wor", "ld"}}
	s := newTestSession(t, "preview", fc)
	rec := &recorder{}

	turn, err := s.Send(context.Background(), "  开始 ", rec)
	require.NoError(t, err)
	require.NoError(t, turn.Err)

	assert.Equal(t, "开始", turn.User)
	assert.Equal(t, "**Hello** world", turn.Reply)
	assert.Equal(t, 3, turn.Chunks)
	assert.Equal(t, []string{
		"**Hel",
		"<strong>Hello</strong> wor",
		"<strong>Hello</strong> world",
	}, rec.renders)

	assert.Equal(t, []api.Message{
		{Role: api.RoleUser, Content: "开始"},
		{Role: api.RoleAssistant, Content: "**Hello** world"},
	}, s.History())

	reqs := fc.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, s.Agent.SystemPrompt, reqs[0].System)
	assert.Equal(t, 0.7, reqs[0].Temperature)
	assert.Equal(t, 2000, reqs[0].MaxTokens)
	assert.Equal(t, []api.Message{{Role: api.RoleUser, Content: "开始"}}, reqs[0].Messages)
	assert.False(t, s.Busy())
}

func TestSendTransportFailure(t *testing.T) {
	fc := &fakeClient{deltas: []string{"partial"}, err: &llm.StatusError{Code: 500}}
	s := newTestSession(t, "qa", fc)
	rec := &recorder{}

	turn, err := s.Send(context.Background(), "串口乱码怎么办", rec)
	require.NoError(t, err)

	var se *llm.StatusError
	require.True(t, errors.As(turn.Err, &se))
	assert.Equal(t, "partial", turn.Reply)
	assert.Equal(t, "抱歉，连接出现问题，请稍后重试。<br><br>错误信息: api request failed: status 500", rec.last())

	assert.Equal(t, []api.Message{{Role: api.RoleUser, Content: "串口乱码怎么办"}}, s.History())
	assert.False(t, s.Busy())

	// next turn carries both user messages and no assistant message
	fc.err = nil
	fc.deltas = []string{"ok"}
	_, err = s.Send(context.Background(), "再试一次", rec)
	require.NoError(t, err)
	reqs := fc.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, []api.Message{
		{Role: api.RoleUser, Content: "串口乱码怎么办"},
		{Role: api.RoleUser, Content: "再试一次"},
	}, reqs[1].Messages)
}

func TestSendRejectsEmpty(t *testing.T) {
	fc := &fakeClient{}
	s := newTestSession(t, "qa", fc)

	_, err := s.Send(context.Background(), " \n\t", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, s.History())
	assert.Empty(t, fc.requests())
}

func TestSendRejectsOverlappingTurn(t *testing.T) {
	fc := &fakeClient{deltas: []string{"a"}, gate: make(chan struct{})}
	s := newTestSession(t, "preview", fc)
	rec := &recorder{}

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first", rec)
		done <- err
	}()

	require.Eventually(t, func() bool { return rec.last() == "a" }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.Busy())

	_, err := s.Send(context.Background(), "second", nil)
	assert.ErrorIs(t, err, ErrTurnInProgress)

	close(fc.gate)
	require.NoError(t, <-done)
	assert.False(t, s.Busy())
	assert.Len(t, s.History(), 2)
}

func TestSendCancelled(t *testing.T) {
	fc := &fakeClient{gate: make(chan struct{})}
	s := newTestSession(t, "preview", fc)
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	turn, err := s.Send(ctx, "hi", rec)
	require.NoError(t, err)
	assert.ErrorIs(t, turn.Err, context.Canceled)
	assert.True(t, strings.HasPrefix(rec.last(), "抱歉，连接出现问题"))
	assert.False(t, s.Busy())
}

func TestWelcomeAndReset(t *testing.T) {
	fc := &fakeClient{deltas: []string{"x"}}
	s := newTestSession(t, "qa", fc)

	w := s.Welcome()
	assert.Contains(t, w, "<li>行空板与温湿度传感器接线</li>")
	assert.NotContains(t, w, "\n")

	_, err := s.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Len(t, s.History(), 2)

	s.Reset()
	assert.Empty(t, s.History())
}

func TestHistoryIsACopy(t *testing.T) {
	s := newTestSession(t, "qa", &fakeClient{deltas: []string{"x"}})
	_, err := s.Send(context.Background(), "hi", nil)
	require.NoError(t, err)

	h := s.History()
	h[0].Content = "changed"
	assert.Equal(t, "hi", s.History()[0].Content)
}

type sourceRecorder struct {
	recorder
	sources []string
}

func (r *sourceRecorder) UpdateSource(text string) { r.sources = append(r.sources, text) }

func TestSendFeedsSourceSinks(t *testing.T) {
	s := newTestSession(t, "qa", &fakeClient{deltas: []string{"a", "**b**"}})
	rec := &sourceRecorder{}
	_, err := s.Send(context.Background(), "hi", rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a**b**"}, rec.sources)
	assert.Equal(t, []string{"a", "a<strong>b</strong>"}, rec.renders)
}
