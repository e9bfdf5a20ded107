// Package extract talks to LLM providers and turns their loosely formatted
// answers into endpoint candidates. It also holds the pure path and title
// heuristics applied to every candidate.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client completes a single prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Provider selects and configures a Client.
type Provider struct {
	Name    string // claude, openai or gemini
	APIKey  string
	Model   string
	BaseURL string // OpenAI-compatible endpoints only
}

// New builds the client for a provider.
func New(ctx context.Context, p Provider) (Client, error) {
	switch strings.ToLower(p.Name) {
	case "claude", "anthropic":
		return NewClaudeClient(p.APIKey, p.Model), nil
	case "openai":
		return NewOpenAIClient(p.BaseURL, p.APIKey, p.Model), nil
	case "gemini":
		return NewGeminiClient(ctx, p.APIKey, p.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", p.Name)
	}
}

// Instrumented records the latency of every call.
type Instrumented struct {
	Client
	Stats *LLMStats
}

func (c Instrumented) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := c.Client.Complete(ctx, prompt)
	c.Stats.RecordCall(time.Since(start), err)
	return text, err
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
