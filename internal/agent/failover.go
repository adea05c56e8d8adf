package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/revops/internal/llm"
	"github.com/soyeahso/revops/internal/logging"
)

// FailoverClient wraps an LLM registry to try fallback providers on failure.
// It satisfies llm.Client.
type FailoverClient struct {
	registry  *llm.Registry
	primary   string
	fallbacks []string
	log       *logging.Logger
}

// NewFailoverClient creates a client that tries the primary model first,
// then falls back through the list on retryable errors (401, 429, 5xx).
func NewFailoverClient(registry *llm.Registry, primary string, fallbacks []string, log *logging.Logger) *FailoverClient {
	return &FailoverClient{
		registry:  registry,
		primary:   primary,
		fallbacks: fallbacks,
		log:       log.Sub("failover"),
	}
}

// Name returns the primary model reference.
func (f *FailoverClient) Name() string { return f.primary }

// Complete tries the primary provider, falling back on retryable errors.
// The returned response carries the name of the provider that answered.
func (f *FailoverClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	models := append([]string{f.primary}, f.fallbacks...)

	var lastErr error
	for _, model := range models {
		client, err := f.registry.Resolve(model)
		if err != nil {
			f.log.Debug().Str("model", model).Err(err).Msg("no provider for model, skipping")
			lastErr = err
			continue
		}

		req.Model = model
		resp, err := client.Complete(ctx, req)
		if err == nil {
			if resp.Provider == "" {
				resp.Provider = client.Name()
			}
			return resp, nil
		}

		lastErr = err

		// A canceled or expired request would fail the same way everywhere.
		if ctx.Err() != nil {
			return nil, err
		}

		if IsRetryable(err) {
			f.log.Warn().
				Str("model", model).
				Str("provider", client.Name()).
				Err(err).
				Msg("retryable error, trying next provider")
			continue
		}

		return nil, err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no models configured")
	}
	return nil, lastErr
}

// IsRetryable checks if the error suggests trying another provider.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case 401, 403, 429, 500, 502, 503, 529:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "capacity") ||
		strings.Contains(msg, "timeout")
}
