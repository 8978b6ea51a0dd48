package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const appName = "classkit"

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// SetConfigFile upstream takes precedence; these paths are fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, appName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	// Read config file if present (overrides defaults)
	_ = v.ReadInConfig()

	// Environment variables: CLASSKIT_* (highest among these sources)
	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.GetString("data_dir") == "" {
		v.Set("data_dir", defaultDataDir())
	}

	// Allow comma-separated env override for the analysis step labels.
	if s := strings.TrimSpace(os.Getenv("CLASSKIT_QUESTIONNAIRE_STEPS")); s != "" {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			v.Set("questionnaire.steps", out)
		}
	}
	return nil
}

// defaultDataDir resolves $XDG_DATA_HOME/classkit or ~/.local/share/classkit.
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, appName, "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// DefaultAnalysisSteps are the labels shown while a questionnaire submission
// is being analysed.
var DefaultAnalysisSteps = []string{
	"解析实验步骤完成情况",
	"识别截图关键信息",
	"评估问题回答质量",
	"生成学习诊断报告",
}

// GetConfigOptions returns the default configuration options and their meanings.
// This is the single source of truth for default values and generator output.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; DB is data_dir/classkit.db"},
		{Key: "http_addr", Default: ":8080", Comment: "HTTP listen address for `classkit serve`"},

		{Key: "log.level", Default: "info", Comment: "debug, info, warn or error"},
		{Key: "log.format", Default: "console", Comment: "console or json"},

		{Key: "llm.provider", Default: "openai", Comment: "openai (any OpenAI-compatible endpoint) or gemini"},
		{Key: "llm.base_url", Default: "https://dashscope.aliyuncs.com/compatible-mode/v1", Comment: "Base URL of the OpenAI-compatible API"},
		{Key: "llm.endpoint_path", Default: "/chat/completions", Comment: "Path appended to base_url, or a full URL"},
		{Key: "llm.model", Default: "qwen-max", Comment: "Model name sent with every request"},
		{Key: "llm.api_key", Default: "", Comment: "API key; prefer api_key_env"},
		{Key: "llm.api_key_env", Default: "DASHSCOPE_API_KEY", Comment: "Environment variable holding the API key"},
		{Key: "llm.temperature", Default: 0.7, Comment: "Sampling temperature"},
		{Key: "llm.max_tokens", Default: 2000, Comment: "Maximum tokens per reply"},
		{Key: "llm.timeout_seconds", Default: 120, Comment: "Upper bound for one streamed reply"},

		{Key: "questionnaire.storage_key", Default: "questionnaire_data", Comment: "Key holding the autosaved draft"},
		{Key: "questionnaire.autosave_ms", Default: 1000, Comment: "Debounce delay before a draft change is saved"},
		{Key: "questionnaire.step_ms", Default: 1000, Comment: "Duration of each simulated analysis step"},
		{Key: "questionnaire.steps", Default: DefaultAnalysisSteps, Comment: "Labels of the simulated analysis steps"},

		{Key: "server.tls_domains", Default: []string{}, Comment: "Serve HTTPS for these domains via ACME; empty serves plain HTTP"},
		{Key: "server.acme_email", Default: "", Comment: "Contact email for the ACME account"},
		{Key: "server.acme_ca", Default: "", Comment: "ACME directory URL; empty uses Let's Encrypt production"},
	}
}

// ResolveDBPath returns the sqlite DB file path under data_dir.
func ResolveDBPath(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	// Expand ~ for convenience
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	return filepath.Join(dir, appName+".db")
}
