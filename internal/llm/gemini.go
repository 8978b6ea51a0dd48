package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/mithrel/classkit/pkg/api"
)

type GeminiOptions struct {
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Gemini streams replies through the Google GenAI SDK.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGemini(opts GeminiOptions) (*Gemini, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client, model: opts.Model, timeout: opts.Timeout}, nil
}

// geminiContents maps the transcript onto GenAI roles; assistant turns are
// "model" turns and system messages travel as SystemInstruction instead.
func geminiContents(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	system := req.System
	for _, m := range req.Messages {
		switch m.Role {
		case api.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		case api.RoleSystem:
			system = strings.TrimSpace(system + "\n\n" + m.Content)
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return contents, cfg
}

func (g *Gemini) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	deltas := make(chan string, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(deltas)

		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		contents, cfg := geminiContents(req)
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
			if err != nil {
				errs <- fmt.Errorf("gemini: %w", err)
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case deltas <- text:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return deltas, errs
}
