// Package config loads the revops YAML configuration, resolves its
// filesystem locations, and validates it.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultProvider       = "openai"
	DefaultModel          = "gpt-4o"
	DefaultPort           = 18790
	DefaultTimeoutSeconds = 300
	DefaultMaxTokens      = 1024
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		APIProvider: DefaultProvider,
		APIModel:    DefaultModel,
		Assistant: AssistantConfig{
			MaxTokens:      DefaultMaxTokens,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Data: DataConfig{
			Source: "csv",
			Dir:    "data",
		},
		Gateway: GatewayConfig{
			Port: DefaultPort,
			Bind: "loopback",
			Auth: GatewayAuth{
				Mode: "token",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
	}
}
