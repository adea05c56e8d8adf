package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

var (
	validProviders    = []string{"openai", "claude", "gemini", "ollama"}
	validProviderAPIs = []string{"openai-completions", "anthropic-messages", "google-generative-ai", "ollama"}
	validSources      = []string{"csv", "sqlite", "postgres"}
	validBinds        = []string{"loopback", "lan", "custom"}
	validAuthModes    = []string{"token", "password"}
	validLogLevels    = []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	validLogStyles    = []string{"pretty", "json"}
)

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}
	oneOf := func(path string, valid []string, got string) {
		if got != "" && !slices.Contains(valid, got) {
			add(path, "must be one of %v, got %q", valid, got)
		}
	}

	// Completion provider
	oneOf("apiProvider", validProviders, cfg.APIProvider)
	if cfg.APIProvider != "" && cfg.APIProvider != "ollama" && cfg.APIKey == "" {
		add("apiKey", "required for provider %q", cfg.APIProvider)
	}
	if cfg.APIProvider != "" && cfg.APIModel == "" {
		add("apiModel", "required for provider %q", cfg.APIProvider)
	}
	for name, p := range cfg.Models.Providers {
		path := "models.providers." + name
		if p.API == "" {
			add(path+".api", "is required")
		}
		oneOf(path+".api", validProviderAPIs, p.API)
		if p.Model == "" {
			add(path+".model", "is required")
		}
	}

	// Assistant
	if cfg.Assistant.MaxTokens < 0 {
		add("assistant.maxTokens", "must not be negative, got %d", cfg.Assistant.MaxTokens)
	}
	if cfg.Assistant.TimeoutSeconds < 0 {
		add("assistant.timeoutSeconds", "must not be negative, got %d", cfg.Assistant.TimeoutSeconds)
	}
	if t := cfg.Assistant.Temperature; t != nil && (*t < 0 || *t > 2) {
		add("assistant.temperature", "must be 0-2, got %g", *t)
	}

	// Data
	oneOf("data.source", validSources, cfg.Data.Source)
	if cfg.Data.Source == "csv" && cfg.Data.Dir == "" {
		add("data.dir", "required when data.source is csv")
	}
	if cfg.Data.Source == "postgres" && cfg.Data.DSN == "" {
		add("data.dsn", "required when data.source is postgres")
	}

	// Gateway
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}
	oneOf("gateway.bind", validBinds, cfg.Gateway.Bind)
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		add("gateway.customBindHost", "required when gateway.bind is custom")
	}
	oneOf("gateway.auth.mode", validAuthModes, cfg.Gateway.Auth.Mode)
	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		add("gateway.tls", "certPath and keyPath are required when TLS is enabled")
	}

	// Logging
	oneOf("logging.level", validLogLevels, cfg.Logging.Level)
	oneOf("logging.style", validLogStyles, cfg.Logging.Style)

	// Hooks
	for event, entries := range map[string][]HookEntry{
		"questionAsked":    cfg.Hooks.QuestionAsked,
		"answerRecorded":   cfg.Hooks.AnswerRecorded,
		"completionFailed": cfg.Hooks.CompletionFailed,
		"gatewayStart":     cfg.Hooks.GatewayStart,
		"gatewayStop":      cfg.Hooks.GatewayStop,
	} {
		for i, h := range entries {
			if h.Command == "" {
				add(fmt.Sprintf("hooks.%s[%d].command", event, i), "is required")
			}
		}
	}

	return issues
}
