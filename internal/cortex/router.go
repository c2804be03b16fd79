package cortex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opendelek/opendelek/internal/config"
)

// rateLimitCooldown is how long a throttled provider is skipped.
const rateLimitCooldown = 30 * time.Second

// Router tries the default model first, then each fallback model in
// order, selecting the first available provider that serves each model.
type Router struct {
	providers   []Provider
	defaultMod  string
	fallbacks   []string
	maxTokens   int
	temperature float64

	mu        sync.Mutex
	cooldowns map[string]time.Time
}

// NewRouter builds a router from the cortex configuration. Providers
// are ordered: corporate OpenAI-compatible endpoint first, Bedrock
// second.
func NewRouter(cfg config.Cortex) *Router {
	providers := []Provider{
		NewOpenAIProvider(cfg.APIURL, cfg.APIKey, 0),
		NewBedrockProvider(cfg.Bedrock.Region, cfg.Bedrock.ModelID, cfg.Bedrock.AccessKeyID, cfg.Bedrock.SecretAccessKey),
	}
	return &Router{
		providers:   providers,
		defaultMod:  cfg.DefaultModel,
		fallbacks:   cfg.FallbackModels,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		cooldowns:   make(map[string]time.Time),
	}
}

// NewRouterWithProviders builds a router over explicit providers.
func NewRouterWithProviders(defaultModel string, fallbacks []string, providers ...Provider) *Router {
	return &Router{
		providers:  providers,
		defaultMod: defaultModel,
		fallbacks:  fallbacks,
		cooldowns:  make(map[string]time.Time),
	}
}

// DefaultModel returns the router's first-choice model.
func (r *Router) DefaultModel() string { return r.defaultMod }

// Available reports whether at least one provider is configured.
// Backs the cortex health probe.
func (r *Router) Available() bool {
	for _, p := range r.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

// Complete routes the request through the model chain. It returns the
// first successful response, or the last error once every model in the
// chain has been tried.
func (r *Router) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = r.maxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = r.temperature
	}

	chain := append([]string{r.defaultMod}, r.fallbacks...)
	var lastErr error

	for _, model := range chain {
		if model == "" {
			continue
		}
		for _, p := range r.providers {
			if !p.Available() || !p.Serves(model) || r.coolingDown(p) {
				continue
			}

			resp, err := p.Complete(ctx, model, req)
			if err == nil {
				return resp, nil
			}
			lastErr = err
			if errors.Is(err, ErrRateLimited) {
				r.markCooldown(p)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}

	if lastErr == nil {
		return nil, ErrNoProvider
	}
	return nil, fmt.Errorf("cortex: all models failed: %w", lastErr)
}

func (r *Router) coolingDown(p Provider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.cooldowns[p.Name()]
	return ok && time.Now().Before(until)
}

func (r *Router) markCooldown(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cooldowns[p.Name()] = time.Now().Add(rateLimitCooldown)
}
