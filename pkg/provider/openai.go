package provider

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements the Client interface for OpenAI chat models.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI adapter.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, NewError("openai", KindNotConfigured, errors.New("openai API key is required"))
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{client: client, model: model}, nil
}

// Name returns the adapter identifier.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// SupportsVision reports that this adapter is text-only.
func (c *OpenAIClient) SupportsVision() bool {
	return false
}

// Generate sends the prompts to OpenAI and returns the generated text.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Image != nil {
		return "", errNoImageSupport(c.Name())
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(1500),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", NewError(c.Name(), kindFromStatus(apiErr.StatusCode), err)
		}
		return "", classifyTransport(c.Name(), err)
	}

	if len(resp.Choices) == 0 {
		return "", NewError(c.Name(), KindBadResponse, errors.New("openai returned no choices"))
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", NewError(c.Name(), KindBadResponse, errors.New("openai returned empty content"))
	}
	return content, nil
}
