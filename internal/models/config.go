package models

// ConfigError indicates an invalid or incomplete configuration.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

// Config is the root configuration, loaded from JSON with environment
// overrides for credentials.
type Config struct {
	LogLevel   string           `json:"log_level"`
	Chat       ChatConfig       `json:"chat"`
	Storage    StorageConfig    `json:"storage"`
	Generation GenerationConfig `json:"generation"`
	Publisher  PublisherConfig  `json:"publisher"`
	History    HistoryConfig    `json:"history"`
	Server     ServerConfig     `json:"server"`
	Retry      RetryConfig      `json:"retry"`
	Tracing    TracingConfig    `json:"tracing"`
}

// ChatConfig configures the chat platform client and event ingestion.
type ChatConfig struct {
	APIBaseURL string `json:"api_base_url"`
	// BotToken authenticates API calls and attachment downloads. Normally
	// injected via MATCHBOT_CHAT_TOKEN.
	BotToken string `json:"bot_token,omitempty"`
	// SigningSecret verifies webhook signatures. Normally injected via
	// MATCHBOT_SIGNING_SECRET.
	SigningSecret string `json:"signing_secret,omitempty"`
	// ChannelID is the only channel the bot listens on.
	ChannelID  string `json:"channel_id"`
	SocketMode bool   `json:"socket_mode"`
	TimeoutSec int    `json:"timeout_sec"`
}

// StorageConfig configures the object storage client.
type StorageConfig struct {
	Endpoint      string `json:"endpoint"`
	Bucket        string `json:"bucket"`
	AccessToken   string `json:"access_token,omitempty"`
	PublicBaseURL string `json:"public_base_url"`
	KeyPrefix     string `json:"key_prefix"`
	TimeoutSec    int    `json:"timeout_sec"`
}

// GenerationConfig configures the content generator.
type GenerationConfig struct {
	Model   string `json:"model"`
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	// TimeoutSec bounds a single generation call. Zero means no timeout,
	// matching the historical behavior of blocking until the backend answers.
	TimeoutSec int `json:"timeout_sec"`
	MaxTokens  int `json:"max_tokens"`
}

// PublisherConfig configures the out-of-process publisher invocation.
type PublisherConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	WorkDir string   `json:"work_dir"`
	// TimeoutSec bounds the publisher process. Zero means wait indefinitely.
	TimeoutSec int `json:"timeout_sec"`
}

// HistoryConfig configures the sqlite publish history.
type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Port            int `json:"port"`
	ReadTimeoutSec  int `json:"read_timeout_sec"`
	WriteTimeoutSec int `json:"write_timeout_sec"`
	IdleTimeoutSec  int `json:"idle_timeout_sec"`
}

// RetryConfig configures backoff for retryable operations (chat status
// updates and socket reconnects; pipeline errors are never retried).
type RetryConfig struct {
	InitialBackoffMs int `json:"initial_backoff_ms"`
	MaxBackoffMs     int `json:"max_backoff_ms"`
	MaxAttempts      int `json:"max_attempts"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	UseStdout      bool    `json:"use_stdout"`
}
