// Package llm streams chat completions from a large-language-model API.
// Callers only ever see the concatenated text fragments; transport framing
// (SSE data lines, provider envelopes) stays inside this package.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mithrel/classkit/pkg/api"
)

// Client streams one assistant reply.
//
// The delta channel carries text fragments in arrival order and is closed when
// the reply ends. The error channel yields at most one error and is closed
// after the delta channel. Fragments already delivered are never retracted.
type Client interface {
	Stream(ctx context.Context, req Request) (<-chan string, <-chan error)
}

// Request is one chat completion: fixed system instruction, turn history and
// sampling parameters.
type Request struct {
	System      string
	Messages    []api.Message
	Temperature float64
	MaxTokens   int
}

var ErrMissingAPIKey = errors.New("missing api key")

// StatusError reports a non-success HTTP response from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api request failed: status %d", e.Code)
	}
	return fmt.Sprintf("api request failed: status %d: %s", e.Code, e.Body)
}

// New builds the client selected by llm.provider.
func New(v *viper.Viper) (Client, error) {
	key := strings.TrimSpace(v.GetString("llm.api_key"))
	if key == "" {
		if env := v.GetString("llm.api_key_env"); env != "" {
			key = strings.TrimSpace(os.Getenv(env))
		}
	}
	if key == "" {
		return nil, fmt.Errorf("llm: %w (set llm.api_key or $%s)", ErrMissingAPIKey, v.GetString("llm.api_key_env"))
	}
	timeout := time.Duration(v.GetInt("llm.timeout_seconds")) * time.Second

	switch p := v.GetString("llm.provider"); p {
	case "openai", "":
		return NewOpenAI(OpenAIOptions{
			BaseURL:      v.GetString("llm.base_url"),
			EndpointPath: v.GetString("llm.endpoint_path"),
			Model:        v.GetString("llm.model"),
			APIKey:       key,
			Timeout:      timeout,
		})
	case "gemini":
		return NewGemini(GeminiOptions{
			Model:   v.GetString("llm.model"),
			APIKey:  key,
			Timeout: timeout,
		})
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", p)
	}
}

// RequestFromConfig fills sampling parameters from config.
func RequestFromConfig(v *viper.Viper, system string, history []api.Message) Request {
	return Request{
		System:      system,
		Messages:    history,
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
	}
}

// Collect drains a stream into one string. It returns the text received so
// far together with the stream error, if any.
func Collect(deltas <-chan string, errs <-chan error) (string, error) {
	var b strings.Builder
	for d := range deltas {
		b.WriteString(d)
	}
	return b.String(), <-errs
}

type unavailable struct{ err error }

// Unavailable returns a client whose every stream fails with err. It stands
// in when the provider cannot be configured so callers still get the usual
// failed-turn handling.
func Unavailable(err error) Client { return unavailable{err: err} }

func (u unavailable) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	deltas := make(chan string)
	errs := make(chan error, 1)
	close(deltas)
	errs <- u.err
	close(errs)
	return deltas, errs
}
