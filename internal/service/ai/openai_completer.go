package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/sashabaranov/go-openai"

	"github.com/taxmonster/backend/internal/config"
	"github.com/taxmonster/backend/internal/model/chat"
)

// OpenAICompleter runs completions against the OpenAI chat completions API.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAICompleter creates a completer from the AI configuration.
func NewOpenAICompleter(cfg config.AIConfig) (*OpenAICompleter, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is empty", config.ErrMissingCredential)
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.OpenAIModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Complete prepends the system instruction and requests a single choice.
func (c *OpenAICompleter) Complete(ctx context.Context, system string, transcript []chat.Message) (string, error) {
	messages := chat.WithSystem(system, transcript)

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		N:           1,
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	content := resp.Choices[0].Message.Content
	log.Printf("[ai] openai completion model=%s turns=%d length=%d", c.model, len(transcript), len(content))
	return content, nil
}
