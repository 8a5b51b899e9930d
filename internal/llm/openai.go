package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"ecocritique/internal/config"
	"ecocritique/internal/socratic"
)

// OpenAIGenerator talks to the OpenAI chat completions API.
type OpenAIGenerator struct {
	client      openai.Client
	model       openai.ChatModel
	maxTokens   int64
	temperature float64
}

func NewOpenAIGenerator(cfg config.LLMConfig, apiKey string) *OpenAIGenerator {
	model := openai.ChatModel(cfg.Model)
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 300
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt socratic.Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		messages = append(messages, openai.SystemMessage(prompt.System))
	}
	for _, m := range prompt.Messages {
		if m.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               g.model,
		Temperature:         openai.Float(g.temperature),
		MaxCompletionTokens: openai.Int(g.maxTokens),
	})
	if err != nil {
		return "", classifyOpenAI(err)
	}

	if len(resp.Choices) == 0 {
		return "", &TransientError{Err: fmt.Errorf("no completion choices returned")}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &TransientError{Err: fmt.Errorf("empty completion")}
	}
	return text, nil
}

func classifyOpenAI(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.StatusCode, err)
	}
	return classifyStatus(0, err)
}
