// Package fishaudio voices dialogue through the Fish Audio TTS API. The
// voice id is a Fish Audio reference model id.
package fishaudio

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
	defaultURL     = "https://api.fish.audio/v1/tts"
	defaultBitrate = 128
	defaultSpeed   = 1.0
	defaultTimeout = 120 * time.Second
)

var _ speech.Provider = (*Client)(nil)

type Config struct {
	APIKey  string
	URL     string
	Bitrate int
	Speed   float64
}

type Client struct {
	apiKey     string
	url        string
	bitrate    int
	speed      float64
	httpClient httputil.Doer
}

type ttsRequest struct {
	Text        string   `json:"text"`
	Format      string   `json:"format"`
	MP3Bitrate  int      `json:"mp3_bitrate"`
	ReferenceID string   `json:"reference_id,omitempty"`
	Normalize   bool     `json:"normalize"`
	Latency     string   `json:"latency"`
	Prosody     *prosody `json:"prosody,omitempty"`
}

type prosody struct {
	Speed float64 `json:"speed"`
}

func NewClient(cfg Config, doer httputil.Doer) *Client {
	url := cfg.URL
	if url == "" {
		url = defaultURL
	}
	bitrate := cfg.Bitrate
	if bitrate == 0 {
		bitrate = defaultBitrate
	}
	speed := cfg.Speed
	if speed == 0 {
		speed = defaultSpeed
	}
	if doer == nil {
		doer = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		url:        url,
		bitrate:    bitrate,
		speed:      speed,
		httpClient: doer,
	}
}

func (c *Client) Synthesize(ctx context.Context, text string, voice speech.Voice) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, speech.ErrEmptyText
	}

	body := ttsRequest{
		Text:        text,
		Format:      "mp3",
		MP3Bitrate:  c.bitrate,
		ReferenceID: voice.ID,
		Normalize:   true,
		Latency:     "normal",
	}
	if c.speed != defaultSpeed {
		body.Prosody = &prosody{Speed: c.speed}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fish audio: %s - %s", resp.Status, string(audio))
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("fish audio returned no audio")
	}
	return audio, nil
}
