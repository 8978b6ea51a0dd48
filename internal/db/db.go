package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mithrel/classkit/pkg/api"
)

// Store persists questionnaire drafts and finished submissions.
type Store interface {
	GetDraft(ctx context.Context, key string) (api.Draft, error)
	// PutDraft replaces the draft under key. It reports false when the stored
	// content already had the same hash and nothing was written.
	PutDraft(ctx context.Context, key string, d api.Draft) (bool, error)
	DeleteDraft(ctx context.Context, key string) error
	// Submit records sub and deletes the draft under clearKey atomically.
	Submit(ctx context.Context, sub api.Submission, clearKey string) error
	// ListSubmissions returns the newest submissions first.
	ListSubmissions(ctx context.Context, limit int) ([]api.Submission, error)
	Close() error
}

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Open returns a Store for dsn: "sqlite://path" or "mem://".
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return openSQLite(ctx, dsn)
	case strings.HasPrefix(dsn, "mem://"):
		return newMemStore(), nil
	default:
		return nil, fmt.Errorf("db: unsupported dsn %q", dsn)
	}
}
