package cortex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// OpenAIProvider calls any OpenAI-compatible chat completions endpoint
// (corporate inference gateway, Ollama, vLLM, hosted APIs).
type OpenAIProvider struct {
	apiURL  string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

// NewOpenAIProvider creates a provider for the given endpoint. An empty
// URL yields an unavailable provider.
func NewOpenAIProvider(apiURL, apiKey string, timeout time.Duration) *OpenAIProvider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAIProvider{
		apiURL:  apiURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (p *OpenAIProvider) Name() string { return "openai-compatible" }

// Serves accepts any model name; the endpoint decides what it hosts.
func (p *OpenAIProvider) Serves(model string) bool { return true }

func (p *OpenAIProvider) Available() bool { return p.apiURL != "" }

func (p *OpenAIProvider) Complete(ctx context.Context, model string, creq Request) (*Response, error) {
	if p.apiURL == "" {
		return nil, ErrNoProvider
	}

	messages := []map[string]string{}
	if creq.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": creq.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": creq.Prompt})

	body, _ := json.Marshal(map[string]any{
		"model":       model,
		"messages":    messages,
		"max_tokens":  creq.MaxTokens,
		"temperature": creq.Temperature,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cortex: create request: %w", err)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cortex: completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cortex: HTTP %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(respBody)), 200))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil || len(result.Choices) == 0 {
		return nil, fmt.Errorf("cortex: empty completion response")
	}

	return &Response{
		Model:   model,
		Content: cleanContent(result.Choices[0].Message.Content),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
