package config

import (
	"encoding/json"
	"fmt"
	"os"

	"matchbot/internal/constants"
	"matchbot/internal/models"
)

var (
	ErrMissingChatURL     = models.ConfigError{Message: "missing chat API base URL"}
	ErrMissingChannelID   = models.ConfigError{Message: "missing chat channel ID"}
	ErrMissingStorage     = models.ConfigError{Message: "missing storage endpoint or bucket"}
	ErrMissingModel       = models.ConfigError{Message: "missing generation model"}
	ErrMissingPublisher   = models.ConfigError{Message: "missing publisher command"}
	ErrMissingHistoryPath = models.ConfigError{Message: "history enabled but no path configured"}
)

// LoadConfig reads the JSON configuration, applies environment overrides for
// credentials, and validates the result.
func LoadConfig(path string) (*models.Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Chat.APIBaseURL == "" {
		return ErrMissingChatURL
	}
	if c.Chat.ChannelID == "" {
		return ErrMissingChannelID
	}
	if c.Chat.BotToken == "" {
		return models.ConfigError{Message: "missing chat bot token (set MATCHBOT_CHAT_TOKEN)"}
	}
	if !c.Chat.SocketMode && c.Chat.SigningSecret == "" {
		return models.ConfigError{Message: "missing signing secret for webhook mode (set MATCHBOT_SIGNING_SECRET)"}
	}
	if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
		return ErrMissingStorage
	}
	if c.Generation.Model == "" {
		return ErrMissingModel
	}
	if c.Generation.APIKey == "" {
		return models.ConfigError{Message: "missing generation API key (set MATCHBOT_OPENAI_API_KEY)"}
	}
	if c.Publisher.Command == "" {
		return ErrMissingPublisher
	}
	if c.History.Enabled && c.History.Path == "" {
		return ErrMissingHistoryPath
	}

	if c.Chat.TimeoutSec <= 0 {
		c.Chat.TimeoutSec = constants.DefaultChatTimeoutSec
	}
	if c.Storage.TimeoutSec <= 0 {
		c.Storage.TimeoutSec = constants.DefaultStorageTimeoutSec
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = constants.DefaultAssetKeyPrefix
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = constants.DefaultGenerationMaxTokens
	}
	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultMaxAttempts
	}

	return nil
}

// applyEnvironmentOverrides injects credentials from the environment so they
// never have to live in the config file.
func applyEnvironmentOverrides(c *models.Config) {
	if token := os.Getenv("MATCHBOT_CHAT_TOKEN"); token != "" {
		c.Chat.BotToken = token
	}
	if secret := os.Getenv("MATCHBOT_SIGNING_SECRET"); secret != "" {
		c.Chat.SigningSecret = secret
	}
	if token := os.Getenv("MATCHBOT_STORAGE_TOKEN"); token != "" {
		c.Storage.AccessToken = token
	}
	if endpoint := os.Getenv("MATCHBOT_STORAGE_ENDPOINT"); endpoint != "" {
		c.Storage.Endpoint = endpoint
	}
	if key := os.Getenv("MATCHBOT_OPENAI_API_KEY"); key != "" {
		c.Generation.APIKey = key
	}
	if channel := os.Getenv("MATCHBOT_CHANNEL_ID"); channel != "" {
		c.Chat.ChannelID = channel
	}
}
