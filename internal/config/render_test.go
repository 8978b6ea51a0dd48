package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDefaultTOMLRoundTrips(t *testing.T) {
	out := RenderDefaultTOML()

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)), out)

	assert.Equal(t, ":8080", v.GetString("http_addr"))
	assert.Equal(t, "qwen-max", v.GetString("llm.model"))
	assert.InDelta(t, 0.7, v.GetFloat64("llm.temperature"), 1e-9)
	assert.Equal(t, 2000, v.GetInt("llm.max_tokens"))
	assert.Equal(t, DefaultAnalysisSteps, v.GetStringSlice("questionnaire.steps"))
	assert.Empty(t, v.GetStringSlice("server.tls_domains"))
}

func TestUpdateTOML(t *testing.T) {
	existing := "http_addr = \":9999\"\nlegacy = true\n[llm]\nmodel = \"qwen-plus\"\n"

	out, changed := UpdateTOML(existing)
	require.True(t, changed)
	assert.Contains(t, out, "http_addr = \":9999\"")
	assert.Contains(t, out, "# OUTDATED: option removed from config schema\n# legacy = true")
	assert.Contains(t, out, "model = \"qwen-plus\"")
	assert.Contains(t, out, "# Added by config update")
	assert.Contains(t, out, "storage_key = \"questionnaire_data\"")

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)), out)
	assert.Equal(t, ":9999", v.GetString("http_addr"))
	assert.Equal(t, "qwen-plus", v.GetString("llm.model"))
	assert.Equal(t, 2000, v.GetInt("llm.max_tokens"))
	assert.False(t, v.IsSet("legacy"))

	again, changed := UpdateTOML(RenderDefaultTOML())
	assert.False(t, changed)
	assert.Equal(t, RenderDefaultTOML(), again)
}
