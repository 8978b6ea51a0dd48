package questionnaire

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mithrel/classkit/internal/notify"
	"github.com/mithrel/classkit/pkg/api"
)

// Autosaver buffers field edits and writes them to Drafts once edits have
// been quiet for the configured delay.
type Autosaver struct {
	drafts *Drafts
	sched  *notify.Scheduler
	log    *zap.Logger

	mu      sync.Mutex
	pending api.Draft
	saving  sync.Mutex
}

func NewAutosaver(drafts *Drafts, delay time.Duration, log *zap.Logger) *Autosaver {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Autosaver{drafts: drafts, log: log, pending: api.Draft{}}
	a.sched = notify.NewScheduler(delay, func() {
		if err := a.save(context.Background()); err != nil {
			a.log.Warn("autosave failed", zap.Error(err))
		}
	})
	return a
}

// Set records edited fields and (re)arms the timer.
func (a *Autosaver) Set(fields api.Draft) {
	a.mu.Lock()
	for k, v := range fields {
		a.pending[k] = v
	}
	a.mu.Unlock()
	a.sched.Touch()
}

// Snapshot returns the stored draft with unsaved edits applied.
func (a *Autosaver) Snapshot(ctx context.Context) (api.Draft, error) {
	d, err := a.drafts.Load(ctx)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	for k, v := range a.pending {
		d[k] = v
	}
	a.mu.Unlock()
	return d, nil
}

// Discard drops unsaved edits.
func (a *Autosaver) Discard() {
	a.sched.Cancel()
	a.mu.Lock()
	a.pending = api.Draft{}
	a.mu.Unlock()
}

// Flush writes unsaved edits immediately.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.sched.Cancel()
	return a.save(ctx)
}

// Stop flushes and disables further autosaves.
func (a *Autosaver) Stop(ctx context.Context) error {
	a.sched.Stop()
	return a.save(ctx)
}

func (a *Autosaver) save(ctx context.Context) error {
	a.saving.Lock()
	defer a.saving.Unlock()

	a.mu.Lock()
	fields := a.pending
	a.pending = api.Draft{}
	a.mu.Unlock()
	if len(fields) == 0 {
		return nil
	}

	_, changed, err := a.drafts.Merge(ctx, fields)
	if err != nil {
		// put the edits back unless newer ones replaced them
		a.mu.Lock()
		for k, v := range fields {
			if _, ok := a.pending[k]; !ok {
				a.pending[k] = v
			}
		}
		a.mu.Unlock()
		return err
	}
	a.log.Debug("draft autosaved", zap.Int("fields", len(fields)), zap.Bool("changed", changed))
	return nil
}
