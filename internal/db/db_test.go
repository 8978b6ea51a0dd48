package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/classkit/pkg/api"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	sq, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	mem, err := Open(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sq.Close()
		_ = mem.Close()
	})
	return map[string]Store{"sqlite": sq, "mem": mem}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "postgres://localhost/x")
	assert.Error(t, err)
}

func TestDraftLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.GetDraft(ctx, "questionnaire_data")
			assert.ErrorIs(t, err, ErrNotFound)

			d := api.Draft{"studentName": "张三", "step1_status": "success"}
			changed, err := s.PutDraft(ctx, "questionnaire_data", d)
			require.NoError(t, err)
			assert.True(t, changed)

			changed, err = s.PutDraft(ctx, "questionnaire_data", d.Clone())
			require.NoError(t, err)
			assert.False(t, changed, "identical content must not be rewritten")

			d["answer1"] = "检查波特率"
			changed, err = s.PutDraft(ctx, "questionnaire_data", d)
			require.NoError(t, err)
			assert.True(t, changed)

			got, err := s.GetDraft(ctx, "questionnaire_data")
			require.NoError(t, err)
			assert.Equal(t, d, got)

			require.NoError(t, s.DeleteDraft(ctx, "questionnaire_data"))
			_, err = s.GetDraft(ctx, "questionnaire_data")
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, s.DeleteDraft(ctx, "questionnaire_data"))
		})
	}
}

func TestSubmitClearsDraft(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.PutDraft(ctx, "k", api.Draft{"studentId": "2024001"})
			require.NoError(t, err)

			base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
			first := api.Submission{
				ID:          "s1",
				ReportID:    "RPT-AAAA0001",
				StudentInfo: api.StudentInfo{Name: "张三", ID: "2024001", Group: "3"},
				Steps:       []api.StepResult{{Step: 1, Status: "success"}},
				SubmittedAt: base,
			}
			require.NoError(t, s.Submit(ctx, first, "k"))

			_, err = s.GetDraft(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)

			second := first
			second.ID = "s2"
			second.ReportID = "RPT-AAAA0002"
			second.SubmittedAt = base.Add(time.Hour)
			require.NoError(t, s.Submit(ctx, second, ""))

			dup := first
			dup.ID = "s3"
			assert.ErrorIs(t, s.Submit(ctx, dup, ""), ErrConflict)

			subs, err := s.ListSubmissions(ctx, 0)
			require.NoError(t, err)
			require.Len(t, subs, 2)
			assert.Equal(t, "s2", subs[0].ID)
			assert.Equal(t, "s1", subs[1].ID)
			assert.True(t, subs[1].SubmittedAt.Equal(base))
			assert.Equal(t, first.StudentInfo, subs[1].StudentInfo)

			subs, err = s.ListSubmissions(ctx, 1)
			require.NoError(t, err)
			require.Len(t, subs, 1)
			assert.Equal(t, "s2", subs[0].ID)
		})
	}
}

func TestSubmitRollsBackOnConflict(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	sub := api.Submission{ID: "s1", ReportID: "RPT-1", SubmittedAt: time.Now()}
	require.NoError(t, s.Submit(ctx, sub, ""))

	_, err = s.PutDraft(ctx, "k", api.Draft{"a": "b"})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Submit(ctx, sub, "k"), ErrConflict)

	d, err := s.GetDraft(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, api.Draft{"a": "b"}, d)
}

func TestTxFromContext(t *testing.T) {
	assert.Nil(t, TxFromContext(context.Background()))
	ctx := WithTx(context.Background(), nil)
	assert.Nil(t, TxFromContext(ctx))
}
