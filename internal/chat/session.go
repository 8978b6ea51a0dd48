package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mithrel/classkit/internal/llm"
	"github.com/mithrel/classkit/internal/render"
	"github.com/mithrel/classkit/pkg/api"
)

var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrTurnInProgress = errors.New("a reply is still streaming")
)

const apologyPrefix = "抱歉，连接出现问题，请稍后重试。\n\n错误信息: "

// Apology is the text shown in place of a reply when the transport fails.
func Apology(err error) string {
	return apologyPrefix + err.Error()
}

// Sink receives the complete render output of the reply after every update.
// Each call replaces whatever the previous call showed.
type Sink interface {
	Update(html string)
}

// SourceSink is implemented by sinks that also want the raw Markdown
// buffer, such as terminal front ends that render it themselves.
type SourceSink interface {
	Sink
	UpdateSource(text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(html string)

func (f SinkFunc) Update(html string) { f(html) }

// Turn summarizes one exchange.
type Turn struct {
	User    string
	Reply   string
	Err     error
	Chunks  int
	Elapsed time.Duration
}

type Options struct {
	Temperature float64
	MaxTokens   int
	Logger      *zap.Logger
}

func (o *Options) defaults() {
	if o.Temperature == 0 {
		o.Temperature = 0.7
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 2000
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Session is one conversation with an agent. History holds only user and
// assistant messages; the system prompt is prepended on every request.
type Session struct {
	ID    string
	Agent Agent

	client llm.Client
	opts   Options
	log    *zap.Logger

	mu      sync.Mutex
	history []api.Message
	busy    atomic.Bool
}

func NewSession(agent Agent, client llm.Client, opts Options) *Session {
	opts.defaults()
	id := uuid.NewString()
	return &Session{
		ID:     id,
		Agent:  agent,
		client: client,
		opts:   opts,
		log:    opts.Logger.With(zap.String("agent", agent.Name), zap.String("session", id)),
	}
}

// Welcome returns the rendered greeting. It is never part of the history.
func (s *Session) Welcome() string { return render.HTML(s.Agent.Welcome) }

func (s *Session) History() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Busy reports whether a turn is streaming.
func (s *Session) Busy() bool { return s.busy.Load() }

func (s *Session) Reset() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

// Send runs one turn: it records the user message, streams the reply and
// pushes the re-rendered buffer to sink after every fragment.
//
// The returned error is only set when the turn is rejected (empty text or a
// turn already running). Transport failures end the turn normally: the sink
// receives the apology, Turn.Err carries the cause, and the history keeps the
// user message without an assistant reply.
func (s *Session) Send(ctx context.Context, text string, sink Sink) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyMessage
	}
	if !s.busy.CompareAndSwap(false, true) {
		return Turn{}, ErrTurnInProgress
	}
	defer s.busy.Store(false)

	if sink == nil {
		sink = SinkFunc(func(string) {})
	}
	src, _ := sink.(SourceSink)
	push := func(text string) {
		if src != nil {
			src.UpdateSource(text)
		}
		sink.Update(render.HTML(text))
	}

	s.mu.Lock()
	s.history = append(s.history, api.Message{Role: api.RoleUser, Content: text})
	hist := make([]api.Message, len(s.history))
	copy(hist, s.history)
	s.mu.Unlock()

	start := time.Now()
	turn := Turn{User: text}
	s.log.Debug("turn started", zap.Int("history", len(hist)))

	deltas, errs := s.client.Stream(ctx, llm.Request{
		System:      s.Agent.SystemPrompt,
		Messages:    hist,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
	var buf strings.Builder
	for d := range deltas {
		buf.WriteString(d)
		turn.Chunks++
		push(buf.String())
	}
	err := <-errs
	turn.Reply = buf.String()
	turn.Elapsed = time.Since(start)

	if err != nil {
		turn.Err = err
		push(Apology(err))
		s.log.Warn("turn failed",
			zap.Int("chunks", turn.Chunks),
			zap.Duration("elapsed", turn.Elapsed),
			zap.Error(err))
		return turn, nil
	}

	s.mu.Lock()
	s.history = append(s.history, api.Message{Role: api.RoleAssistant, Content: turn.Reply})
	s.mu.Unlock()

	s.log.Info("turn finished",
		zap.Int("chunks", turn.Chunks),
		zap.Int("bytes", len(turn.Reply)),
		zap.Duration("elapsed", turn.Elapsed))
	return turn, nil
}
