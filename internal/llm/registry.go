package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/soyeahso/revops/internal/config"
	"github.com/soyeahso/revops/internal/logging"
)

// ProviderError is returned when a provider answers with an error status.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP status code (401, 429, 500, etc.), 0 when unknown
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Registry manages LLM provider clients and resolves model references to clients.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]Client // provider name → client
	aliases  map[string]string // model alias → provider name
	fallback string            // default provider name
	log      *logging.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		clients: make(map[string]Client),
		aliases: make(map[string]string),
		log:     log.Sub("llm.registry"),
	}
}

// Register adds a client under the given provider name.
func (r *Registry) Register(name string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	r.log.Info().Str("provider", name).Msg("registered LLM provider")
}

// Alias maps a model name/alias to a provider.
// e.g., Alias("sonnet", "claude") means "sonnet" resolves to the "claude" provider.
func (r *Registry) Alias(model, provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[model] = provider
}

// SetFallback sets the default provider used when no model/provider match is found.
func (r *Registry) SetFallback(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = provider
}

// Resolve returns the Client for the given model reference.
// Resolution order: exact provider name → alias → fallback.
func (r *Registry) Resolve(model string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Direct provider name match
	if c, ok := r.clients[model]; ok {
		return c, nil
	}

	// Alias lookup
	if provider, ok := r.aliases[model]; ok {
		if c, ok := r.clients[provider]; ok {
			return c, nil
		}
	}

	// Fallback
	if r.fallback != "" {
		if c, ok := r.clients[r.fallback]; ok {
			return c, nil
		}
	}

	return nil, fmt.Errorf("no LLM provider for model %q", model)
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Fallback returns the default provider name.
func (r *Registry) Fallback() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// providerAliases maps well-known model names to the provider serving them.
var providerAliases = map[string][]string{
	"openai": {"gpt-4o", "gpt-4o-mini", "gpt-4.1"},
	"claude": {"sonnet", "opus", "haiku", "claude-sonnet", "claude-opus", "claude-haiku"},
	"gemini": {"gemini-pro", "gemini-flash"},
	"ollama": {"llama", "llama3", "mistral"},
}

// NewRegistryFromConfig registers the primary provider named by apiProvider
// and every entry under models.providers. The primary becomes the fallback.
// Providers that cannot be constructed are logged and skipped.
func NewRegistryFromConfig(cfg config.Config, log *logging.Logger) *Registry {
	reg := NewRegistry(log)

	if client, err := newPrimaryClient(cfg); err != nil {
		reg.log.Warn().Str("provider", cfg.APIProvider).Err(err).Msg("primary provider unavailable")
	} else if client != nil {
		reg.Register(cfg.APIProvider, client)
		reg.SetFallback(cfg.APIProvider)
		for _, alias := range providerAliases[cfg.APIProvider] {
			reg.Alias(alias, cfg.APIProvider)
		}
		if cfg.APIModel != "" {
			reg.Alias(cfg.APIModel, cfg.APIProvider)
		}
	}

	names := make([]string, 0, len(cfg.Models.Providers))
	for name := range cfg.Models.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, exists := reg.clients[name]; exists {
			continue
		}
		entry := cfg.Models.Providers[name]
		client, err := clientFromEntry(name, entry)
		if err != nil {
			reg.log.Warn().Str("provider", name).Err(err).Msg("skipping provider")
			continue
		}
		reg.Register(name, client)
	}

	return reg
}

func newPrimaryClient(cfg config.Config) (Client, error) {
	switch cfg.APIProvider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("apiKey is not set")
		}
		return NewOpenAIClient(cfg.APIKey, cfg.APIModel, cfg.APIEndpoint), nil
	case "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("apiKey is not set")
		}
		return NewClaudeAPIClient(cfg.APIKey, cfg.APIModel, cfg.APIEndpoint), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("apiKey is not set")
		}
		return NewGeminiClient(context.Background(), cfg.APIKey, cfg.APIModel, cfg.APIEndpoint)
	case "ollama":
		return NewOllamaAPIClient(cfg.APIEndpoint, cfg.APIModel), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.APIProvider)
	}
}

// clientFromEntry builds a client for a models.providers entry.
func clientFromEntry(name string, p config.ModelProviderEntry) (Client, error) {
	switch p.API {
	case "openai-completions":
		return NewOpenAIClient(p.APIKey, p.Model, p.BaseURL).WithName(name).WithHeaders(p.Headers), nil
	case "anthropic-messages":
		return NewClaudeAPIClient(p.APIKey, p.Model, p.BaseURL), nil
	case "google-generative-ai":
		return NewGeminiClient(context.Background(), p.APIKey, p.Model, p.BaseURL)
	case "ollama":
		return NewOllamaAPIClient(p.BaseURL, p.Model), nil
	default:
		return nil, fmt.Errorf("unsupported api %q", p.API)
	}
}
