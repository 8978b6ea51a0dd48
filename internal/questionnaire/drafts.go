package questionnaire

import (
	"context"
	"errors"
	"sync"

	"github.com/mithrel/classkit/internal/db"
	"github.com/mithrel/classkit/pkg/api"
)

// Drafts is the single namespaced draft record in the store.
type Drafts struct {
	store db.Store
	key   string
	mu    sync.Mutex
}

func NewDrafts(store db.Store, key string) *Drafts {
	return &Drafts{store: store, key: key}
}

func (d *Drafts) Key() string { return d.key }

// Load returns the saved draft, or an empty one when nothing is saved.
func (d *Drafts) Load(ctx context.Context) (api.Draft, error) {
	draft, err := d.store.GetDraft(ctx, d.key)
	if errors.Is(err, db.ErrNotFound) {
		return api.Draft{}, nil
	}
	return draft, err
}

// Save replaces the draft. It reports whether anything was written.
func (d *Drafts) Save(ctx context.Context, draft api.Draft) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.PutDraft(ctx, d.key, draft)
}

// Merge overlays fields onto the saved draft and stores the result.
func (d *Drafts) Merge(ctx context.Context, fields api.Draft) (api.Draft, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, err := d.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	for k, v := range fields {
		cur[k] = v
	}
	changed, err := d.store.PutDraft(ctx, d.key, cur)
	return cur, changed, err
}

func (d *Drafts) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.DeleteDraft(ctx, d.key)
}
