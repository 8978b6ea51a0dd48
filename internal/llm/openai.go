package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIOptions configures an OpenAI-compatible endpoint (OpenAI, DashScope
// compatible mode, OpenRouter and friends).
type OpenAIOptions struct {
	BaseURL      string
	EndpointPath string // appended to BaseURL; may be a full URL
	Model        string
	APIKey       string
	Timeout      time.Duration // upper bound for one streamed reply; 0 disables
	HTTPClient   *http.Client
}

func (o *OpenAIOptions) defaults() {
	if o.BaseURL == "" {
		o.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	if o.EndpointPath == "" {
		o.EndpointPath = "/chat/completions"
	}
	if o.Model == "" {
		o.Model = "qwen-max"
	}
	if o.HTTPClient == nil {
		// no client-level timeout: it would cut long streams; ctx bounds each reply
		o.HTTPClient = &http.Client{}
	}
}

// OpenAI streams chat completions over server-sent events.
type OpenAI struct {
	hc      *http.Client
	url     string
	apiKey  string
	model   string
	timeout time.Duration
}

func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	opts.defaults()
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	full := opts.EndpointPath
	if !(strings.HasPrefix(full, "http://") || strings.HasPrefix(full, "https://")) {
		full = strings.TrimRight(opts.BaseURL, "/") + "/" + strings.TrimLeft(opts.EndpointPath, "/")
	}
	return &OpenAI{
		hc:      opts.HTTPClient,
		url:     full,
		apiKey:  opts.APIKey,
		model:   opts.Model,
		timeout: opts.Timeout,
	}, nil
}

type oaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaRequest struct {
	Model       string      `json:"model"`
	Messages    []oaMessage `json:"messages"`
	Temperature float64     `json:"temperature"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
	Stream      bool        `json:"stream"`
}

type oaChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *OpenAI) encode(req Request) ([]byte, error) {
	msgs := make([]oaMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, oaMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, oaMessage{Role: string(m.Role), Content: m.Content})
	}
	return json.Marshal(oaRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	})
}

// Stream posts the request and forwards every delta of the SSE response.
// There are no retries: a failed request or broken stream ends the reply.
func (c *OpenAI) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	deltas := make(chan string, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(deltas)

		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		body, err := c.encode(req)
		if err != nil {
			errs <- fmt.Errorf("encode request: %w", err)
			return
		}
		hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			errs <- fmt.Errorf("create request: %w", err)
			return
		}
		hreq.Header.Set("Content-Type", "application/json")
		hreq.Header.Set("Accept", "text/event-stream")
		hreq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.hc.Do(hreq)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			errs <- &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
			return
		}

		if err := readEvents(ctx, resp.Body, deltas); err != nil {
			errs <- err
		}
	}()

	return deltas, errs
}

// readEvents scans SSE lines until the [DONE] sentinel or EOF. Data lines
// that are not valid JSON are skipped.
func readEvents(ctx context.Context, r io.Reader, out chan<- string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		delta, done, ok := decodeDataLine(sc.Text())
		if done {
			return nil
		}
		if !ok || delta == "" {
			continue
		}
		select {
		case out <- delta:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// decodeDataLine extracts choices[0].delta.content from one SSE line.
// done is true for the "[DONE]" sentinel; ok is false for lines that carry
// no usable fragment.
func decodeDataLine(line string) (delta string, done, ok bool) {
	if !strings.HasPrefix(line, "data:") {
		return "", false, false
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if data == "" {
		return "", false, false
	}
	if data == "[DONE]" {
		return "", true, false
	}
	var chunk oaChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", false, false
	}
	if len(chunk.Choices) == 0 {
		return "", false, false
	}
	return chunk.Choices[0].Delta.Content, false, true
}
