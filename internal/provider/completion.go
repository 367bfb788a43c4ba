// Package provider holds the outbound integrations: chat completion models,
// web search, the Wikipedia and OpenWeather clients, RSS news feeds, and the
// built-in dictionary. Everything here returns plain values and errors; the
// resolver decides what to do when a provider comes back empty.
package provider

import (
	"context"
	"fmt"
	"strings"

	"sagechat/internal/config"
	"sagechat/internal/intent"
	"sagechat/internal/models"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// Completion wraps one configured chat model behind the small surface the
// rest of the app needs.
type Completion struct {
	chatModel model.ToolCallingChatModel
	provider  string
}

// NewCompletion builds the chat model for the named provider.
func NewCompletion(provider string, provCfg config.ProviderConfig) (*Completion, error) {
	var chatModel model.ToolCallingChatModel
	var err error

	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("new gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	return &Completion{chatModel: chatModel, provider: provider}, nil
}

// Complete generates an answer for the prepared message sequence.
func (c *Completion) Complete(ctx context.Context, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to complete")
	}
	out, err := c.chatModel.Generate(ctx, convertMessages(messages),
		model.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}
	return strings.TrimSpace(out.Content), nil
}

// SummarizeConversation condenses a transcript into a few sentences. The
// summary is stored back into the session, so it must stand alone.
func (c *Completion) SummarizeConversation(ctx context.Context, transcript string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage("Summarize the conversation below in 3 to 4 sentences. " +
			"Keep the main topic, the user's open questions, and any facts already established. " +
			"Write plain prose with no preamble."),
		schema.UserMessage(transcript),
	}
	out, err := c.chatModel.Generate(ctx, messages, model.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("summarize conversation: %w", err)
	}
	summary := strings.TrimSpace(out.Content)
	if summary == "" {
		return "", fmt.Errorf("summarize conversation: empty response")
	}
	return summary, nil
}

// ClassifyLabel asks the model for a single intent label at temperature
// zero. The caller validates the label against its allowed set.
func (c *Completion) ClassifyLabel(ctx context.Context, question string) (string, error) {
	messages := []*schema.Message{
		schema.UserMessage(intent.ClassifyPrompt(question)),
	}
	out, err := c.chatModel.Generate(ctx, messages,
		model.WithTemperature(0), model.WithMaxTokens(8))
	if err != nil {
		return "", fmt.Errorf("classify label: %w", err)
	}
	return strings.TrimSpace(out.Content), nil
}

func convertMessages(history []models.Message) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		var role schema.RoleType
		switch msg.Role {
		case models.RoleUser:
			role = schema.User
		case models.RoleAssistant:
			role = schema.Assistant
		case models.RoleSystem:
			role = schema.System
		default:
			role = schema.User
		}
		messages = append(messages, &schema.Message{
			Role:    role,
			Content: msg.Content,
		})
	}
	return messages
}
