// Package xtts voices dialogue through a self-hosted XTTS v2 server. The
// voice id is the path of the speaker sample on the server.
package xtts

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
	defaultServerURL = "http://localhost:8020"
	defaultLanguage  = "en"
	defaultTimeout   = 120 * time.Second
)

var _ speech.Provider = (*Client)(nil)

type Config struct {
	ServerURL string
	Language  string
}

type Client struct {
	serverURL  string
	language   string
	httpClient httputil.Doer
}

type ttsRequest struct {
	Text       string `json:"text"`
	SpeakerWav string `json:"speaker_wav"`
	Language   string `json:"language"`
}

func NewClient(cfg Config, doer httputil.Doer) *Client {
	serverURL := strings.TrimRight(cfg.ServerURL, "/")
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	language := cfg.Language
	if language == "" {
		language = defaultLanguage
	}
	if doer == nil {
		doer = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		serverURL:  serverURL,
		language:   language,
		httpClient: doer,
	}
}

func (c *Client) Synthesize(ctx context.Context, text string, voice speech.Voice) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, speech.ErrEmptyText
	}

	data, err := json.Marshal(ttsRequest{
		Text:       text,
		SpeakerWav: voice.ID,
		Language:   c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/tts_to_audio", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xtts request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("xtts server error: %s - %s", resp.Status, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("xtts server returned no audio")
	}
	return audio, nil
}

// Health reports whether the server answers on /health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("xtts server not running: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("xtts server unhealthy: %s", resp.Status)
	}
	return nil
}
