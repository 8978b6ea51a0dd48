package chat

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mithrel/classkit/internal/llm"
)

var ErrUnknownSession = errors.New("unknown session")

// Registry holds the live sessions of the HTTP adapter.
type Registry struct {
	client llm.Client
	opts   Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(client llm.Client, opts Options) *Registry {
	opts.defaults()
	return &Registry{client: client, opts: opts, sessions: make(map[string]*Session)}
}

func (r *Registry) Create(agent string) (*Session, error) {
	a, err := Lookup(agent)
	if err != nil {
		return nil, err
	}
	s := NewSession(a, r.client, r.opts)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

// Get returns the session with id, which must belong to agent.
func (r *Registry) Get(agent, id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok || s.Agent.Name != agent {
		return nil, fmt.Errorf("%w %q", ErrUnknownSession, id)
	}
	return s, nil
}

// Delete resets and evicts a session.
func (r *Registry) Delete(agent, id string) error {
	s, err := r.Get(agent, id)
	if err != nil {
		return err
	}
	s.Reset()
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
