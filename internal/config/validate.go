package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// CheckConfigValidity reports every invalid setting at once.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		add("data_dir is required")
	}
	if _, err := zapcore.ParseLevel(v.GetString("log.level")); err != nil {
		add("log.level %q is not a level", v.GetString("log.level"))
	}
	switch v.GetString("log.format") {
	case "console", "json":
	default:
		add("log.format must be console or json")
	}

	switch p := v.GetString("llm.provider"); p {
	case "openai":
		u, err := url.Parse(v.GetString("llm.base_url"))
		if err != nil || u.Scheme == "" || u.Host == "" {
			add("llm.base_url is not a valid url")
		}
	case "gemini":
	default:
		add("llm.provider %q must be openai or gemini", p)
	}
	if strings.TrimSpace(v.GetString("llm.model")) == "" {
		add("llm.model is required")
	}
	if t := v.GetFloat64("llm.temperature"); t < 0 || t > 2 {
		add("llm.temperature must be between 0 and 2")
	}
	if v.GetInt("llm.max_tokens") <= 0 {
		add("llm.max_tokens must be greater than 0")
	}
	if v.GetInt("llm.timeout_seconds") <= 0 {
		add("llm.timeout_seconds must be greater than 0")
	}

	if strings.TrimSpace(v.GetString("questionnaire.storage_key")) == "" {
		add("questionnaire.storage_key is required")
	}
	if v.GetInt("questionnaire.autosave_ms") < 0 {
		add("questionnaire.autosave_ms must not be negative")
	}
	if v.GetInt("questionnaire.step_ms") < 0 {
		add("questionnaire.step_ms must not be negative")
	}
	if len(v.GetStringSlice("questionnaire.steps")) == 0 {
		add("questionnaire.steps must name at least one step")
	}
	return errors.Join(errs...)
}
