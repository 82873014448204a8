package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"papercast/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

var paperComponentsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":        {Type: genai.TypeString, Description: "Main title of the paper"},
		"methods":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Key methods used"},
		"findings":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Main findings"},
		"applications": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Practical applications"},
		"keywords":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Key terms"},
	},
	Required: []string{"title", "methods", "findings", "applications", "keywords"},
}

type Client struct {
	client *genai.Client
	model  string
}

type Option func(*genai.ClientConfig)

func WithBaseURL(url string) Option {
	return func(c *genai.ClientConfig) {
		c.HTTPOptions.BaseURL = url
	}
}

func NewClient(ctx context.Context, apiKey, model string, opts ...Option) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), generationConfig(req))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", llm.ErrNoResponse
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", llm.ErrEmptyResponse
	}

	return text, nil
}

func generationConfig(req llm.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	p := req.Params
	if p.MaxTokens > 0 {
		config.MaxOutputTokens = int32(p.MaxTokens)
	}
	config.Temperature = genai.Ptr(p.Temperature)
	if p.TopP > 0 {
		config.TopP = genai.Ptr(p.TopP)
	}
	if p.TopK > 0 {
		config.TopK = genai.Ptr(float32(p.TopK))
	}
	if p.JSON {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = paperComponentsSchema
	}
	return config
}
