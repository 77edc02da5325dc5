package provider

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements the Client interface for Claude models.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic adapter.
func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, NewError("anthropic", KindNotConfigured, errors.New("anthropic API key is required"))
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &AnthropicClient{client: client, model: model}, nil
}

// Name returns the adapter identifier.
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// SupportsVision reports that this adapter is text-only.
func (c *AnthropicClient) SupportsVision() bool {
	return false
}

// Generate sends the prompts to Claude and returns the generated text.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Image != nil {
		return "", errNoImageSupport(c.Name())
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1500,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", NewError(c.Name(), kindFromStatus(apiErr.StatusCode), err)
		}
		return "", classifyTransport(c.Name(), err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return "", NewError(c.Name(), KindBadResponse, errors.New("anthropic returned empty content"))
	}
	return content, nil
}
