package questionnaire

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mithrel/classkit/internal/db"
	"github.com/mithrel/classkit/pkg/api"
)

// Progress reports one analysis step. Each step is reported twice: once
// when it becomes active and once when it completes.
type Progress struct {
	Step    int     `json:"step"`
	Total   int     `json:"total"`
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Done    bool    `json:"done"`
}

// Analyzer plays the simulated analysis of a submission and records it.
type Analyzer struct {
	Steps     []string
	StepDelay time.Duration
	LeadIn    time.Duration
	Tail      time.Duration

	Store    db.Store
	ClearKey string
	Log      *zap.Logger
	Now      func() time.Time
}

// Run walks the analysis steps, then stores sub under a fresh report id and
// clears the draft. A cancelled ctx aborts the run before anything is stored.
func (a *Analyzer) Run(ctx context.Context, sub api.Submission, progress func(Progress)) (api.Receipt, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	now := a.Now
	if now == nil {
		now = time.Now
	}
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}

	if err := sleep(ctx, a.LeadIn); err != nil {
		return api.Receipt{}, err
	}
	n := len(a.Steps)
	for i, label := range a.Steps {
		p := Progress{Step: i + 1, Total: n, Label: label, Percent: float64(i+1) / float64(n) * 100}
		progress(p)
		if err := sleep(ctx, a.StepDelay); err != nil {
			return api.Receipt{}, err
		}
		p.Done = true
		progress(p)
	}
	if err := sleep(ctx, a.Tail); err != nil {
		return api.Receipt{}, err
	}

	rc := api.Receipt{ReportID: api.NewReportID(8), SubmittedAt: now().UTC()}
	sub.ReportID = rc.ReportID
	if err := a.Store.Submit(ctx, sub, a.ClearKey); err != nil {
		return api.Receipt{}, fmt.Errorf("store submission: %w", err)
	}
	log.Info("questionnaire submitted",
		zap.String("report_id", rc.ReportID),
		zap.String("student_id", sub.StudentInfo.ID),
		zap.Int("screenshots", len(sub.Screenshots)))
	return rc, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
