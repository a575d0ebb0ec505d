// Package gemini adapts the Google Gen AI SDK to the text generator port.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

const defaultMaxOutputTokens = 4096

type Options struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	// BaseURL overrides the API endpoint; tests point it at httptest.
	BaseURL string
}

type Client struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, domain.WrapError(domain.ErrAIUnavailable, "gemini client", errors.New("api key is empty"))
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = defaultMaxOutputTokens
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxOutputTokens,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	temperature := c.temperature
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: c.maxTokens,
	})
	if err != nil {
		return domain.Generation{}, wrapTemporaryIfNeeded(fmt.Errorf("gemini generate: %w", err))
	}
	if resp == nil {
		return domain.Generation{}, errors.New("gemini generate: nil response")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return domain.Generation{}, errors.New("gemini generate: no text content in response")
	}

	gen := domain.Generation{Text: text, Model: c.model}
	if usage := resp.UsageMetadata; usage != nil {
		gen.PromptTokens = int(usage.PromptTokenCount)
		gen.CompletionTokens = int(usage.CandidatesTokenCount)
		gen.TotalTokens = int(usage.TotalTokenCount)
	}
	return gen, nil
}

func statusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}

// wrapTemporaryIfNeeded marks throttling and server-side failures as temporary.
func wrapTemporaryIfNeeded(err error) error {
	switch code := statusCode(err); {
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return domain.WrapError(domain.ErrTemporary, "gemini generate", err)
	default:
		return err
	}
}
