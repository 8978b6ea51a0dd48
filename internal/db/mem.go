package db

import (
	"context"
	"sort"
	"sync"

	"github.com/mithrel/classkit/pkg/api"
)

type memStore struct {
	mu          sync.RWMutex
	drafts      map[string]api.Draft
	hashes      map[string]string
	submissions []api.Submission
}

func newMemStore() *memStore {
	return &memStore{drafts: make(map[string]api.Draft), hashes: make(map[string]string)}
}

func (m *memStore) GetDraft(ctx context.Context, key string) (api.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[key]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (m *memStore) PutDraft(ctx context.Context, key string, d api.Draft) (bool, error) {
	h := d.Hash()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[key] == h {
		return false, nil
	}
	m.drafts[key] = d.Clone()
	m.hashes[key] = h
	return true, nil
}

func (m *memStore) DeleteDraft(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, key)
	delete(m.hashes, key)
	return nil
}

func (m *memStore) Submit(ctx context.Context, sub api.Submission, clearKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.submissions {
		if s.ID == sub.ID || (sub.ReportID != "" && s.ReportID == sub.ReportID) {
			return ErrConflict
		}
	}
	m.submissions = append(m.submissions, sub)
	if clearKey != "" {
		delete(m.drafts, clearKey)
		delete(m.hashes, clearKey)
	}
	return nil
}

func (m *memStore) ListSubmissions(ctx context.Context, limit int) ([]api.Submission, error) {
	m.mu.RLock()
	out := append([]api.Submission(nil), m.submissions...)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }
