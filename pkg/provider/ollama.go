package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// OllamaClient implements the Client interface for a local Ollama
// inference server. There is no official Go SDK, so the adapter speaks
// the /api/generate HTTP contract directly.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// NewOllamaClient creates a new Ollama adapter. The base URL must be
// set explicitly; there is no localhost default, so an absent local
// server reads as not configured rather than unreachable.
func NewOllamaClient(baseURL, model string) (*OllamaClient, error) {
	if baseURL == "" {
		return nil, NewError("ollama", KindNotConfigured, errors.New("ollama base URL is required"))
	}

	if model == "" {
		model = "llama3.2"
	}
	return &OllamaClient{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{},
	}, nil
}

// Name returns the adapter identifier.
func (c *OllamaClient) Name() string {
	return "ollama"
}

// SupportsVision reports that this adapter is text-only.
func (c *OllamaClient) SupportsVision() bool {
	return false
}

// Generate sends the prompts to the local server and returns the
// generated text.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Image != nil {
		return "", errNoImageSupport(c.Name())
	}

	reqBody := ollamaRequest{
		Model:  c.model,
		Prompt: combinePrompts(req.System, req.User),
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.3,
			NumPredict:  1500,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classifyTransport(c.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewError(c.Name(), KindUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", NewError(c.Name(), kindFromStatus(resp.StatusCode),
			fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body)))
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return "", NewError(c.Name(), KindBadResponse, fmt.Errorf("failed to parse response: %w", err))
	}
	if ollamaResp.Error != "" {
		return "", NewError(c.Name(), KindBadResponse, fmt.Errorf("ollama error: %s", ollamaResp.Error))
	}
	if ollamaResp.Response == "" {
		return "", NewError(c.Name(), KindBadResponse, errors.New("ollama returned empty response"))
	}
	return ollamaResp.Response, nil
}
