package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/taxmonster/backend/internal/config"
	"github.com/taxmonster/backend/internal/model/chat"
)

// ChainCompleter runs completions through an eino prompt/model chain.
type ChainCompleter struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewArkCompleter builds a ChainCompleter backed by the Volcengine Ark model.
func NewArkCompleter(ctx context.Context, cfg config.AIConfig) (*ChainCompleter, error) {
	chatModel, err := cfg.NewArkChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewChainCompleter(ctx, chatModel)
}

// NewChainCompleter compiles the system + history chain around chatModel.
func NewChainCompleter(ctx context.Context, chatModel model.ChatModel) (*ChainCompleter, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChainCompleter{chatModel: chatModel, chain: runnable}, nil
}

// Complete returns the model's reply to transcript under the system instruction.
func (c *ChainCompleter) Complete(ctx context.Context, system string, transcript []chat.Message) (string, error) {
	input := map[string]any{
		"system":  system,
		"history": toSchemaMessages(transcript),
	}

	response, err := c.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}
	if response == nil {
		return "", nil
	}

	log.Printf("[ai] chain completion turns=%d length=%d", len(transcript), len(response.Content))
	return response.Content, nil
}

func toSchemaMessages(transcript []chat.Message) []*schema.Message {
	history := make([]*schema.Message, 0, len(transcript))
	for _, msg := range transcript {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		case chat.RoleSystem:
			history = append(history, schema.SystemMessage(msg.Content))
		default:
			history = append(history, &schema.Message{Role: schema.RoleType(msg.Role), Content: msg.Content})
		}
	}
	return history
}
