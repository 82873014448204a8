// Package deepseek completes prompts through the DeepSeek chat completions API.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"papercast/internal/llm"
	"papercast/pkg/httputil"
)

const (
	defaultURL     = "https://api.deepseek.com/v1/chat/completions"
	defaultModel   = "deepseek-chat"
	defaultTimeout = 120 * time.Second
	roleSystem     = "system"
	roleUser       = "user"
)

var _ llm.Completer = (*Client)(nil)

type Config struct {
	APIKey string
	URL    string
	Model  string
}

type Client struct {
	apiKey     string
	url        string
	model      string
	httpClient httputil.Doer
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type request struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
	TopP           float32         `json:"top_p,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type response struct {
	Choices []choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

type choice struct {
	Message message `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewClient(cfg Config, doer httputil.Doer) *Client {
	url := cfg.URL
	if url == "" {
		url = defaultURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if doer == nil {
		doer = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		url:        url,
		model:      model,
		httpClient: doer,
	}
}

func (c *Client) Model() string {
	return c.model
}

// Complete sends one system+user exchange. TopK has no DeepSeek equivalent
// and is not sent.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	messages := make([]message, 0, 2)
	if req.System != "" {
		messages = append(messages, message{Role: roleSystem, Content: req.System})
	}
	messages = append(messages, message{Role: roleUser, Content: req.Prompt})

	body := request{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.Params.MaxTokens,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
	}
	if req.Params.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := c.doRequest(ctx, data)
	if err != nil {
		return "", err
	}
	return parseResponse(raw)
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepseek api error: %s - %s", resp.Status, string(body))
	}
	return body, nil
}

func parseResponse(data []byte) (string, error) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("deepseek error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrNoResponse
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", llm.ErrEmptyResponse
	}
	return content, nil
}
