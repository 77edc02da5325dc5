package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiClient implements the Client interface for Gemini models. It is
// the only bundled adapter that accepts image input.
type GeminiClient struct {
	client      *genai.Client
	model       string
	visionModel string
}

// NewGeminiClient creates a new Gemini adapter.
func NewGeminiClient(apiKey, model, visionModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, NewError("gemini", KindNotConfigured, errors.New("gemini API key is required"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-2.0-flash"
	}
	if visionModel == "" {
		visionModel = model
	}
	return &GeminiClient{client: client, model: model, visionModel: visionModel}, nil
}

// Name returns the adapter identifier.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// SupportsVision reports that Gemini accepts image attachments.
func (c *GeminiClient) SupportsVision() bool {
	return true
}

// Generate sends the prompts to Gemini and returns the generated text.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	model := c.model
	parts := []*genai.Part{genai.NewPartFromText(combinePrompts(req.System, req.User))}
	if req.Image != nil {
		model = c.visionModel
		parts = append(parts, genai.NewPartFromBytes(req.Image, http.DetectContentType(req.Image)))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", NewError(c.Name(), kindFromStatus(apiErr.Code), err)
		}
		return "", classifyTransport(c.Name(), err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", NewError(c.Name(), KindBadResponse, errors.New("gemini returned no candidates"))
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}
	if content == "" {
		return "", NewError(c.Name(), KindBadResponse, errors.New("gemini returned empty content"))
	}
	return content, nil
}

// combinePrompts folds the system prompt into the user turn for
// providers whose request shape has no separate system slot.
func combinePrompts(system, user string) string {
	if system == "" {
		return user
	}
	return system + "\n\n" + user
}
