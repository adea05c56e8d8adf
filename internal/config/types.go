package config

// Config is the root configuration for revops.
type Config struct {
	APIProvider string          `yaml:"apiProvider,omitempty"` // "openai" | "claude" | "gemini" | "ollama"
	APIKey      string          `yaml:"apiKey,omitempty"`
	APIModel    string          `yaml:"apiModel,omitempty"`
	APIEndpoint string          `yaml:"apiEndpoint,omitempty"` // base URL override, required for self-hosted ollama
	Models      ModelsConfig    `yaml:"models,omitempty"`
	Assistant   AssistantConfig `yaml:"assistant,omitempty"`
	Data        DataConfig      `yaml:"data,omitempty"`
	Gateway     GatewayConfig   `yaml:"gateway,omitempty"`
	Logging     LoggingConfig   `yaml:"logging,omitempty"`
	Hooks       HooksConfig     `yaml:"hooks,omitempty"`
}

// ModelsConfig declares extra completion providers usable as fallbacks.
type ModelsConfig struct {
	Providers map[string]ModelProviderEntry `yaml:"providers,omitempty"`
}

// ModelProviderEntry defines a completion provider.
type ModelProviderEntry struct {
	API     string            `yaml:"api"` // "openai-completions" | "anthropic-messages" | "google-generative-ai" | "ollama"
	BaseURL string            `yaml:"baseUrl,omitempty"`
	APIKey  string            `yaml:"apiKey,omitempty"`
	Model   string            `yaml:"model,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// AssistantConfig tunes the question-answering pipeline.
type AssistantConfig struct {
	Model          string   `yaml:"model,omitempty"`     // provider name or alias; empty uses apiProvider
	Fallbacks      []string `yaml:"fallbacks,omitempty"` // tried in order when the primary fails
	MaxTokens      int      `yaml:"maxTokens,omitempty"`
	Temperature    *float64 `yaml:"temperature,omitempty"`
	TimeoutSeconds int      `yaml:"timeoutSeconds,omitempty"`
}

// DataConfig selects where the CRM tables come from.
type DataConfig struct {
	Source string `yaml:"source,omitempty"` // "csv" | "sqlite" | "postgres"
	Dir    string `yaml:"dir,omitempty"`    // CSV directory
	Path   string `yaml:"path,omitempty"`   // sqlite database file
	DSN    string `yaml:"dsn,omitempty"`    // postgres connection string
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
}

// HooksConfig binds shell commands to lifecycle events.
type HooksConfig struct {
	QuestionAsked    []HookEntry `yaml:"questionAsked,omitempty"`
	AnswerRecorded   []HookEntry `yaml:"answerRecorded,omitempty"`
	CompletionFailed []HookEntry `yaml:"completionFailed,omitempty"`
	GatewayStart     []HookEntry `yaml:"gatewayStart,omitempty"`
	GatewayStop      []HookEntry `yaml:"gatewayStop,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
