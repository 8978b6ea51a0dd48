package questionnaire

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mithrel/classkit/internal/db"
	"github.com/mithrel/classkit/pkg/api"
)

// Service ties the draft, its autosaver and the analyzer together.
type Service struct {
	Drafts   *Drafts
	Autosave *Autosaver
	Analyzer *Analyzer
	log      *zap.Logger
}

// New builds the service from questionnaire.* config keys.
func New(v *viper.Viper, store db.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("questionnaire")
	drafts := NewDrafts(store, v.GetString("questionnaire.storage_key"))
	return &Service{
		Drafts:   drafts,
		Autosave: NewAutosaver(drafts, time.Duration(v.GetInt("questionnaire.autosave_ms"))*time.Millisecond, log),
		Analyzer: &Analyzer{
			Steps:     v.GetStringSlice("questionnaire.steps"),
			StepDelay: time.Duration(v.GetInt("questionnaire.step_ms")) * time.Millisecond,
			LeadIn:    500 * time.Millisecond,
			Tail:      500 * time.Millisecond,
			Store:     store,
			ClearKey:  drafts.Key(),
			Log:       log,
		},
		log: log,
	}
}

// Prepare flushes pending edits, validates the draft and collects it.
func (s *Service) Prepare(ctx context.Context) (api.Submission, error) {
	if err := s.Autosave.Flush(ctx); err != nil {
		return api.Submission{}, err
	}
	d, err := s.Drafts.Load(ctx)
	if err != nil {
		return api.Submission{}, err
	}
	if err := Validate(d); err != nil {
		return api.Submission{}, err
	}
	return Collect(d, time.Now()), nil
}

// Submit runs Prepare followed by the analysis.
func (s *Service) Submit(ctx context.Context, progress func(Progress)) (api.Receipt, error) {
	sub, err := s.Prepare(ctx)
	if err != nil {
		return api.Receipt{}, err
	}
	return s.Analyzer.Run(ctx, sub, progress)
}

// Reset discards unsaved edits and deletes the stored draft.
func (s *Service) Reset(ctx context.Context) error {
	s.Autosave.Discard()
	return s.Drafts.Clear(ctx)
}

func (s *Service) Close(ctx context.Context) error {
	return s.Autosave.Stop(ctx)
}

// Submissions lists recorded submissions, newest first.
func (s *Service) Submissions(ctx context.Context, limit int) ([]api.Submission, error) {
	return s.Analyzer.Store.ListSubmissions(ctx, limit)
}
