package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/mithrel/classkit/pkg/api"
)

func TestGeminiContents(t *testing.T) {
	contents, cfg := geminiContents(Request{
		System: "你是课堂答疑智能体",
		Messages: []api.Message{
			{Role: api.RoleUser, Content: "开始"},
			{Role: api.RoleAssistant, Content: "好的"},
			{Role: api.RoleUser, Content: "1A 2B 3C"},
		},
		Temperature: 0.5,
		MaxTokens:   256,
	})

	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "好的", contents[1].Parts[0].Text)

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.5, *cfg.Temperature, 1e-6)
	assert.EqualValues(t, 256, cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "你是课堂答疑智能体", cfg.SystemInstruction.Parts[0].Text)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(GeminiOptions{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
