package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/classkit/internal/chat"
	"github.com/mithrel/classkit/pkg/api"
)

func writeConfigTOML(t *testing.T, dir string) string {
	t.Helper()
	cfg := filepath.Join(dir, "config.toml")
	content := `data_dir = "` + strings.ReplaceAll(dir, "\\", "\\\\") + `"

[log]
level = "error"

[llm]
api_key = ""
api_key_env = "CLASSKIT_TEST_UNSET_KEY"

[questionnaire]
step_ms = 1
steps = ["parse", "report"]
`
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o600))
	return cfg
}

// execute runs the CLI the way main does and returns combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := run(root)
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("CLASSKIT_TEST_UNSET_KEY", "")
	return writeConfigTOML(t, dir)
}

func TestRenderFromStdin(t *testing.T) {
	out, err := execute(t, "# Title\n\n- **a**\n- b", "render")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1><br><li><strong>a</strong></li><br><li>b</li>\n", out)
}

func TestRenderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.md")
	require.NoError(t, os.WriteFile(path, []byte("`x` < y"), 0o600))
	out, err := execute(t, "", "render", path)
	require.NoError(t, err)
	assert.Equal(t, "<code>x</code> &lt; y\n", out)
}

func TestChatUnknownAgentSuggests(t *testing.T) {
	cfg := isolate(t)
	_, err := execute(t, "", "--config", cfg, "chat", "pview", "--plain")
	require.Error(t, err)
	assert.ErrorIs(t, err, chat.ErrUnknownAgent)
	assert.Contains(t, err.Error(), "did you mean preview")
}

func TestChatPlainWithoutKeyApologizes(t *testing.T) {
	cfg := isolate(t)
	htmlPath := filepath.Join(t.TempDir(), "last.html")
	out, err := execute(t, "hello\n\n/quit\n", "--config", cfg, "chat", "qa", "--plain", "--html", htmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[课堂答疑智能体]")
	assert.Contains(t, out, "抱歉，连接出现问题，请稍后重试。")
	assert.Contains(t, out, "missing api key")

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(html), "抱歉，连接出现问题，请稍后重试。<br><br>错误信息:"), string(html))
}

func TestQuestionnaireFlow(t *testing.T) {
	cfg := isolate(t)

	out, err := execute(t, "", "--config", cfg, "questionnaire", "draft", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "(empty draft)")

	_, err = execute(t, "", "--config", cfg, "questionnaire", "submit")
	require.Error(t, err)

	for _, kv := range [][2]string{
		{"studentName", "张三"},
		{"studentId", "2024001"},
		{"groupNumber", "3"},
		{"step1_status", "success"},
		{"answer1", "line one\nline two"},
	} {
		out, err := execute(t, "", "--config", cfg, "questionnaire", "draft", "set", kv[0], kv[1])
		require.NoError(t, err, out)
		assert.Contains(t, out, "Draft saved")
	}

	out, err = execute(t, "", "--config", cfg, "q", "draft", "set", "studentName", "张三")
	require.NoError(t, err)
	assert.Contains(t, out, "Draft unchanged")

	_, err = execute(t, "", "--config", cfg, "q", "draft", "set", "studentNam", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean studentName")

	img := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(img, append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...), 0o600))
	_, err = execute(t, "", "--config", cfg, "q", "draft", "attach", "2", img)
	require.NoError(t, err)
	_, err = execute(t, "", "--config", cfg, "q", "draft", "attach", "9", img)
	require.Error(t, err)

	out, err = execute(t, "", "--config", cfg, "q", "draft", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "studentName\t张三")
	assert.Contains(t, out, `answer1`+"\t"+`line one\nline two`)
	assert.Contains(t, out, "screenshot_2_data\timage/png, 24 bytes")

	out, err = execute(t, "", "--config", cfg, "q", "submit")
	require.NoError(t, err, out)
	assert.Contains(t, out, "[2/2]")
	assert.Contains(t, out, "报告编号: RPT-")

	out, err = execute(t, "", "--config", cfg, "q", "draft", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "(empty draft)")

	out, err = execute(t, "", "--config", cfg, "q", "submissions", "--output", "json")
	require.NoError(t, err)
	var subs []api.Submission
	require.NoError(t, json.Unmarshal([]byte(out), &subs), out)
	require.Len(t, subs, 1)
	assert.Equal(t, "张三", subs[0].StudentInfo.Name)
	assert.Equal(t, "line one\nline two", subs[0].Answers.Q1)
	assert.True(t, strings.HasPrefix(subs[0].ReportID, "RPT-"))
	assert.Contains(t, subs[0].Screenshots, "screenshot_2_data")
}

func TestQuestionnaireSubmitListsMissingFields(t *testing.T) {
	cfg := isolate(t)
	_, err := execute(t, "", "--config", cfg, "q", "draft", "set", "studentName", "张三")
	require.NoError(t, err)

	out, err := execute(t, "", "--config", cfg, "q", "submit")
	require.Error(t, err)
	assert.Contains(t, out, "studentId:")
	assert.Contains(t, out, "groupNumber:")
	assert.NotContains(t, out, "studentName:")
}

func TestDraftClear(t *testing.T) {
	cfg := isolate(t)
	_, err := execute(t, "", "--config", cfg, "q", "draft", "set", "groupNumber", "7")
	require.NoError(t, err)
	out, err := execute(t, "", "--config", cfg, "q", "draft", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Draft cleared")
	out, err = execute(t, "", "--config", cfg, "q", "draft", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "(empty draft)")
}

func TestConfigGenerateAndUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classkit", "config.toml")

	out, err := execute(t, "", "config", "generate", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")

	_, err = execute(t, "", "config", "generate", "-o", path)
	require.Error(t, err)

	out, err = execute(t, "", "config", "generate", "-o", path, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "Config already up to date")

	_, err = execute(t, "", "config", "generate", "-o", path, "--update", "--overwrite")
	require.Error(t, err)
}

func TestCompletionScripts(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := execute(t, "", "completion", shell)
		require.NoError(t, err, shell)
		assert.Contains(t, out, "classkit", shell)
	}
	_, err := execute(t, "", "completion", "tcsh")
	require.Error(t, err)
}

func TestCompleteAgents(t *testing.T) {
	assert.Equal(t, []string{"preview"}, completeAgents("pre"))
	assert.ElementsMatch(t, []string{"preview", "qa"}, completeAgents(""))
}

func TestDraftEditUsesEditor(t *testing.T) {
	cfg := isolate(t)
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	script := filepath.Join(dir, "ed.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf 'first\\nsecond\\n' >> \"$1\"\n"), 0o700))
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", script)

	out, err := execute(t, "", "--config", cfg, "q", "draft", "edit", "answer2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Draft saved")

	out, err = execute(t, "", "--config", cfg, "q", "draft", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "answer2\tfirst\\nsecond")
}
