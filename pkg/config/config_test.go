package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(orig) })
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	return tmp
}

func TestLoadFromYAML(t *testing.T) {
	tmp := chdirTemp(t)

	yaml := `
groq:
  model: test-model
abstract:
  provider: gemini
  workflow:
    temperature: 0.5
tts:
  provider: stub
  parallelism: 3
murf:
  host_voice:
    id: "voice-a"
audio:
  gap_ms: 250
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Groq.Model != "test-model" {
		t.Errorf("Groq.Model = %q, want test-model", cfg.Groq.Model)
	}
	if cfg.Abstract.Provider != ProviderGemini {
		t.Errorf("Abstract.Provider = %q, want gemini", cfg.Abstract.Provider)
	}
	if cfg.Abstract.Workflow.Temperature != 0.5 {
		t.Errorf("Workflow.Temperature = %v, want 0.5", cfg.Abstract.Workflow.Temperature)
	}
	if cfg.Abstract.Workflow.MaxTokens != 1000 {
		t.Errorf("Workflow.MaxTokens = %d, want 1000", cfg.Abstract.Workflow.MaxTokens)
	}
	if cfg.TTS.Provider != "stub" || cfg.TTS.Parallelism != 3 {
		t.Errorf("TTS = %+v, want stub/3", cfg.TTS)
	}
	if cfg.Murf.HostVoice.ID != "voice-a" {
		t.Errorf("Murf.HostVoice.ID = %q, want voice-a", cfg.Murf.HostVoice.ID)
	}
	if cfg.Murf.GuestVoice.ID != defaultGuestVoice {
		t.Errorf("Murf.GuestVoice.ID = %q, want %q", cfg.Murf.GuestVoice.ID, defaultGuestVoice)
	}
	if cfg.Audio.GapMs != 250 {
		t.Errorf("Audio.GapMs = %d, want 250", cfg.Audio.GapMs)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("GROQ_API_KEY", "test-groq")
	t.Setenv("GEMINI_API_KEY", "test-gemini")
	t.Setenv("MURF_API_KEY", "test-murf")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.GroqAPIKey != "test-groq" {
		t.Errorf("GroqAPIKey = %q, want test-groq", cfg.GroqAPIKey)
	}
	if cfg.GeminiAPIKey != "test-gemini" {
		t.Errorf("GeminiAPIKey = %q, want test-gemini", cfg.GeminiAPIKey)
	}
	if cfg.MurfAPIKey != "test-murf" {
		t.Errorf("MurfAPIKey = %q, want test-murf", cfg.MurfAPIKey)
	}
	if cfg.GCPProject != "test-project" {
		t.Errorf("GCPProject = %q, want test-project", cfg.GCPProject)
	}
}

func TestLoadMissingConfigFileUsesDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Abstract.Provider != ProviderGroq {
		t.Errorf("Abstract.Provider = %q, want groq", cfg.Abstract.Provider)
	}
	if cfg.Podcast.Provider != ProviderGemini {
		t.Errorf("Podcast.Provider = %q, want gemini", cfg.Podcast.Provider)
	}
	if cfg.Podcast.Script.TopK != 40 || cfg.Podcast.Script.MaxTokens != 8192 {
		t.Errorf("Podcast.Script = %+v, want top_k 40 and 8192 tokens", cfg.Podcast.Script)
	}
	if cfg.PDF.PrefixChars != 15000 {
		t.Errorf("PDF.PrefixChars = %d, want 15000", cfg.PDF.PrefixChars)
	}
	if cfg.Audio.GapMs != 500 {
		t.Errorf("Audio.GapMs = %d, want 500", cfg.Audio.GapMs)
	}
	if cfg.HTTP.MaxRetries != 0 {
		t.Errorf("HTTP.MaxRetries = %d, want 0", cfg.HTTP.MaxRetries)
	}
	if cfg.Murf.Rate != 11 || cfg.Murf.SampleRate != 48000 {
		t.Errorf("Murf = %+v, want rate 11 and 48000 Hz", cfg.Murf)
	}
	if cfg.DeepSeek.Model != "deepseek-chat" || cfg.DeepSeek.URL == "" {
		t.Errorf("DeepSeek = %+v, want deepseek-chat with a URL", cfg.DeepSeek)
	}
	if cfg.FishAudio.Bitrate != 128 || cfg.FishAudio.Speed != 1 {
		t.Errorf("FishAudio = %+v, want 128 kbps at speed 1", cfg.FishAudio)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmp := chdirTemp(t)
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte("groq: [unclosed"), 0644)

	if _, err := Load(context.Background()); err == nil {
		t.Error("Load() should fail on malformed config")
	}
}

func TestLoadFromCustomPath(t *testing.T) {
	tmp := chdirTemp(t)
	path := filepath.Join(tmp, "custom.yaml")
	_ = os.WriteFile(path, []byte("output:\n  dir: /srv/papercast\n"), 0644)

	cfg, err := LoadFrom(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Output.Dir != "/srv/papercast" {
		t.Errorf("Output.Dir = %q, want /srv/papercast", cfg.Output.Dir)
	}
}

type fakeSecrets struct {
	values map[string]string
	asked  []string
}

func (f *fakeSecrets) Secret(_ context.Context, name string) (string, error) {
	f.asked = append(f.asked, name)
	if v, ok := f.values[name]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func (f *fakeSecrets) Close() error { return nil }

func TestResolveSecrets(t *testing.T) {
	cfg := &Config{GroqAPIKey: "from-env"}
	source := &fakeSecrets{values: map[string]string{
		"groq-api-key": "from-secret",
		"murf-api-key": "murf-secret",
	}}

	resolveSecrets(context.Background(), cfg, source)

	if cfg.GroqAPIKey != "from-env" {
		t.Errorf("GroqAPIKey = %q, env value should win", cfg.GroqAPIKey)
	}
	if cfg.MurfAPIKey != "murf-secret" {
		t.Errorf("MurfAPIKey = %q, want murf-secret", cfg.MurfAPIKey)
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("GeminiAPIKey = %q, want empty when secret missing", cfg.GeminiAPIKey)
	}
	for _, name := range source.asked {
		if name == "groq-api-key" {
			t.Error("secret source should not be asked for a key already set")
		}
	}
}
