package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretSource resolves a named credential.
type SecretSource interface {
	Secret(ctx context.Context, name string) (string, error)
	Close() error
}

type SecretManagerSource struct {
	client  *secretmanager.Client
	project string
	prefix  string
}

func NewSecretManagerSource(ctx context.Context, project, prefix string) (*SecretManagerSource, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create secret manager client: %w", err)
	}
	return &SecretManagerSource{client: client, project: project, prefix: prefix}, nil
}

func (s *SecretManagerSource) Secret(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s%s/versions/latest", s.project, s.prefix, name),
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}

func (s *SecretManagerSource) Close() error {
	return s.client.Close()
}

// resolveSecrets fills credentials that the environment left empty.
func resolveSecrets(ctx context.Context, cfg *Config, source SecretSource) {
	targets := []struct {
		name  string
		value *string
	}{
		{"groq-api-key", &cfg.GroqAPIKey},
		{"gemini-api-key", &cfg.GeminiAPIKey},
		{"murf-api-key", &cfg.MurfAPIKey},
		{"elevenlabs-api-key", &cfg.ElevenLabsAPIKey},
		{"deepseek-api-key", &cfg.DeepSeekAPIKey},
		{"fish-audio-api-key", &cfg.FishAudioAPIKey},
	}

	for _, target := range targets {
		if *target.value != "" {
			continue
		}
		value, err := source.Secret(ctx, target.name)
		if err != nil {
			slog.Debug("Secret not resolved", "name", target.name, "error", err)
			continue
		}
		*target.value = value
	}
}
