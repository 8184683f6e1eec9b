package instructor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.ChatModelGPT4oMini

var errNoChoices = errors.New("completion has no choices")

// OpenAICompleter completes prompts with the OpenAI chat completions API.
type OpenAICompleter struct {
	client openai.Client
	model  openai.ChatModel
	logger *slog.Logger
}

// NewOpenAICompleter creates a completer for apiKey. An empty model selects DefaultModel.
func NewOpenAICompleter(apiKey string, model string, logger *slog.Logger) *OpenAICompleter {
	chatModel := openai.ChatModel(model)
	if chatModel == "" {
		chatModel = DefaultModel
	}
	return &OpenAICompleter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  chatModel,
		logger: logger,
	}
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, system string, user string, maxTokens int64) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx,
		openai.ChatCompletionNewParams{ //nolint:exhaustruct // only need to set a few fields.
			Model: c.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			MaxCompletionTokens: openai.Int(maxTokens),
		})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errNoChoices
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "received chat completion",
		slog.String("model", completion.Model),
		slog.Int64("prompt_tokens", completion.Usage.PromptTokens),
		slog.Int64("completion_tokens", completion.Usage.CompletionTokens))
	return completion.Choices[0].Message.Content, nil
}
