// Package gemini implements the Google Gemini driver on top of the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bfhl/bfhl/internal/ailink/driver"
)

// DefaultModel is used when the request does not name a model.
const DefaultModel = "gemini-2.5-flash"

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client implements driver.Driver against the Gemini API.
type Client struct {
	models *genai.Models
}

// NewClient returns a client with defaults applied.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{models: client.Models}, nil
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "gemini"
}

// Complete sends a single user turn and returns the concatenated text parts.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client not configured")
	}
	if req == nil {
		return nil, errors.New("request is required")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultModel
	}

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(req.Prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &driver.ProviderError{
				Provider:   "gemini",
				StatusCode: apiErr.Code,
				Status:     apiErr.Status,
				Message:    strings.TrimSpace(apiErr.Message),
			}
		}
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return toDriverResponse(resp), nil
}

func toDriverResponse(resp *genai.GenerateContentResponse) *driver.Response {
	out := &driver.Response{}
	if resp == nil {
		return out
	}

	out.Text = resp.Text()
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		out.Usage = &driver.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out
}
