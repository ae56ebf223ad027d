package parser

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultModelName is the Gemini model used for smart-input parsing.
	DefaultModelName = "gemini-2.0-flash-lite"

	// DefaultCompletionTimeout is the hard cap on a single completion call.
	// Past it the call is treated as failed; retry is the caller's decision.
	DefaultCompletionTimeout = 30 * time.Second
)

// GeminiCompleter implements Completer against the Gemini API. A shared
// client is held to avoid creating a new connection for each call.
type GeminiCompleter struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// GeminiOption configures a GeminiCompleter.
type GeminiOption func(*GeminiCompleter)

// WithModel overrides the model name. An empty name keeps the default.
func WithModel(name string) GeminiOption {
	return func(c *GeminiCompleter) {
		if name != "" {
			c.model = name
		}
	}
}

// WithTimeout overrides the per-call completion timeout.
func WithTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiCompleter) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewGeminiCompleter creates a completer with the default model and timeout.
// Credentials come from the environment (GEMINI_API_KEY).
func NewGeminiCompleter(ctx context.Context, opts ...GeminiOption) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiCompleter: create genai client: %w", err)
	}
	c := &GeminiCompleter{
		client:  client,
		model:   DefaultModelName,
		timeout: DefaultCompletionTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends the prompt to Gemini and returns the raw response text.
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

var _ Completer = (*GeminiCompleter)(nil)
