package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/classkit/pkg/api"
)

func sampleSubmissions() []api.Submission {
	return []api.Submission{{
		ID:          "s1",
		ReportID:    "RPT-ABCD1234",
		StudentInfo: api.StudentInfo{Name: "张\t三", ID: "2024001", Group: "3"},
		Steps: []api.StepResult{
			{Step: 1, Status: "success"},
			{Step: 2, Status: "fail"},
			{Step: 3, Status: "success"},
		},
		SubmittedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}}
}

func TestWritePlainSubmissions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainSubmissions(&buf, sampleSubmissions(), true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "report_id"))
	assert.Contains(t, lines[1], "RPT-ABCD1234")
	assert.Contains(t, lines[1], `张\t三`)
	assert.True(t, strings.HasSuffix(lines[1], "2/3"))
}

func TestWriteJSONAndNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONSubmissions(&buf, nil, false))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	subs := append(sampleSubmissions(), sampleSubmissions()...)
	require.NoError(t, WriteNDJSONSubmissions(&buf, subs))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var got api.Submission
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "RPT-ABCD1234", got.ReportID)
}

func TestWritePrettyReply(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePrettyReply(&buf, "## 标题\n\n正文", 60))
	assert.Contains(t, buf.String(), "标题")
	assert.Contains(t, buf.String(), "正文")
}

func TestTextStream(t *testing.T) {
	var buf bytes.Buffer
	s := NewTextStream(&buf)
	s.UpdateSource("Hel")
	s.UpdateSource("Hello")
	s.Update("<strong>Hello</strong>")
	s.End()
	assert.Equal(t, "Hello\n", buf.String())
	assert.Equal(t, "<strong>Hello</strong>", s.HTML())

	buf.Reset()
	s.UpdateSource("partial")
	s.UpdateSource("抱歉")
	s.End()
	assert.Equal(t, "partial\n抱歉\n", buf.String())
}
