package ollama

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

// Client is a text generator backed by the Ollama /api/generate endpoint.
type Client struct {
	baseURL    string
	model      string
	jsonFormat bool
	httpClient *http.Client
}

func New(baseURL, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithJSONFormat asks Ollama to constrain output to JSON. Only extraction
// prompts expect it; narrative comparison needs plain markdown.
func (c *Client) WithJSONFormat() *Client {
	clone := *c
	clone.jsonFormat = true
	return &clone
}

func (c *Client) Model() string {
	return c.model
}

type generateResponse struct {
	Response        string `json:"response"`
	Model           string `json:"model"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	if c.jsonFormat {
		reqBody["format"] = "json"
	}

	var response generateResponse
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return domain.Generation{}, classifyProviderError("ollama generate", err)
	}
	text := strings.TrimSpace(response.Response)
	if text == "" {
		return domain.Generation{}, errors.New("ollama generate: empty response")
	}

	model := response.Model
	if model == "" {
		model = c.model
	}
	return domain.Generation{
		Text:             text,
		Model:            model,
		PromptTokens:     response.PromptEvalCount,
		CompletionTokens: response.EvalCount,
		TotalTokens:      response.PromptEvalCount + response.EvalCount,
	}, nil
}
