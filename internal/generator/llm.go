package generator

import (
	"context"
	"errors"

	"matchbot/internal/models"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// LLM is the generative backend: one system+user exchange, raw text back.
type LLM interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAILLM implements LLM using the openai-go SDK (chat completions).
type OpenAILLM struct {
	model     string
	maxTokens int
	opts      []option.RequestOption
}

// NewOpenAILLM builds the backend from generation config.
func NewOpenAILLM(cfg models.GenerationConfig) (*OpenAILLM, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generation API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("generation model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAILLM{model: cfg.Model, maxTokens: cfg.MaxTokens, opts: opts}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, system, user string) (string, error) {
	client := openai.NewClient(o.opts...)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.maxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("generation backend returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
