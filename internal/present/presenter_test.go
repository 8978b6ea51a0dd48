package present

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/classkit/pkg/api"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModePlain, "plain": ModePlain, "pretty": ModePretty, "json": ModeJSON, "ndjson": ModeNDJSON, "tui": ModeTUI} {
		got, ok := ParseMode(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseMode("xml")
	assert.False(t, ok)
}

func TestRenderReceipt(t *testing.T) {
	rc := api.Receipt{ReportID: "RPT-ABCDEFGH", SubmittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}

	var plain bytes.Buffer
	require.NoError(t, RenderReceipt(&plain, rc, Options{Mode: ModePlain}))
	assert.Contains(t, plain.String(), "报告编号: RPT-ABCDEFGH")

	var js bytes.Buffer
	require.NoError(t, RenderReceipt(&js, rc, Options{Mode: ModeJSON}))
	assert.JSONEq(t, `{"reportId":"RPT-ABCDEFGH","submittedAt":"2026-01-02T03:04:05Z"}`, js.String())
}

func TestRenderSubmissionsPlainHeaders(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, RenderSubmissions(&b, []api.Submission{{ReportID: "RPT-1"}}, Options{Mode: ModePlain, Headers: true}))
	assert.Contains(t, b.String(), "report_id")
	assert.Contains(t, b.String(), "RPT-1")
}
