package murf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"papercast/internal/speech"
	"papercast/pkg/httputil"
)

const (
	defaultURL = "https://api.murf.ai/v1/speech/generate"
	timeout    = 120 * time.Second
)

var _ speech.Provider = (*Client)(nil)

type Config struct {
	APIKey       string
	URL          string
	Style        string
	Rate         int
	Pitch        int
	SampleRate   int
	Format       string
	ChannelType  string
	ModelVersion string
	Locale       string
}

type Client struct {
	cfg        Config
	httpClient httputil.Doer
}

type option func(*Client)

func withHTTPClient(doer httputil.Doer) option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

type generateRequest struct {
	VoiceID                 string         `json:"voiceId"`
	Style                   string         `json:"style"`
	Text                    string         `json:"text"`
	Rate                    int            `json:"rate"`
	Pitch                   int            `json:"pitch"`
	SampleRate              int            `json:"sampleRate"`
	Format                  string         `json:"format"`
	ChannelType             string         `json:"channelType"`
	PronunciationDictionary map[string]any `json:"pronunciationDictionary"`
	EncodeAsBase64          bool           `json:"encodeAsBase64"`
	Variation               int            `json:"variation"`
	AudioDuration           int            `json:"audioDuration"`
	ModelVersion            string         `json:"modelVersion"`
	MultiNativeLocale       string         `json:"multiNativeLocale"`
}

type generateResponse struct {
	AudioFile string `json:"audioFile"`
}

// NewClient sends requests through doer, or a plain client when doer is nil.
func NewClient(cfg Config, doer httputil.Doer) *Client {
	return newClient(cfg, withHTTPClient(doer))
}

func newClient(cfg Config, opts ...option) *Client {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

// Synthesize asks Murf to render the text and downloads the resulting file.
func (c *Client) Synthesize(ctx context.Context, text string, voice speech.Voice) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, speech.ErrEmptyText
	}

	audioURL, err := c.generate(ctx, text, voice.ID)
	if err != nil {
		return nil, err
	}
	return c.download(ctx, audioURL)
}

func (c *Client) generate(ctx context.Context, text, voiceID string) (string, error) {
	payload := generateRequest{
		VoiceID:                 voiceID,
		Style:                   c.cfg.Style,
		Text:                    text,
		Rate:                    c.cfg.Rate,
		Pitch:                   c.cfg.Pitch,
		SampleRate:              c.cfg.SampleRate,
		Format:                  c.cfg.Format,
		ChannelType:             c.cfg.ChannelType,
		PronunciationDictionary: map[string]any{},
		EncodeAsBase64:          false,
		Variation:               1,
		AudioDuration:           0,
		ModelVersion:            c.cfg.ModelVersion,
		MultiNativeLocale:       c.cfg.Locale,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("murf: %s - %s", resp.Status, string(body))
	}

	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if gen.AudioFile == "" {
		return "", fmt.Errorf("murf: response has no audio file")
	}
	return gen.AudioFile, nil
}

func (c *Client) download(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download audio: %s", resp.Status)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}
