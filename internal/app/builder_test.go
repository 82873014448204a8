package app

import (
	"context"
	"net/http"
	"testing"

	"papercast/internal/llm"
	"papercast/internal/speech"
	"papercast/internal/speech/elevenlabs"
	"papercast/internal/speech/fishaudio"
	"papercast/internal/speech/murf"
	"papercast/internal/speech/xtts"
	"papercast/internal/storage"
	"papercast/pkg/config"
)

func TestNewSpeechProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantType  string
		wantErr   bool
		wantHost  string
		wantGuest string
	}{
		{
			name: "murf",
			cfg: config.Config{
				MurfAPIKey: "k",
				TTS:        config.TTSConfig{Provider: "murf"},
				Murf:       config.MurfConfig{HostVoice: config.Voice{ID: "en-IN-arohi"}, GuestVoice: config.Voice{ID: "en-IN-aarav"}},
			},
			wantType:  "murf",
			wantHost:  "en-IN-arohi",
			wantGuest: "en-IN-aarav",
		},
		{
			name:    "murfWithoutKey",
			cfg:     config.Config{TTS: config.TTSConfig{Provider: "murf"}},
			wantErr: true,
		},
		{
			name: "elevenlabs",
			cfg: config.Config{
				ElevenLabsAPIKey: "a, b",
				TTS:              config.TTSConfig{Provider: "elevenlabs"},
				ElevenLabs:       config.ElevenLabsConfig{HostVoice: config.Voice{ID: "h"}, GuestVoice: config.Voice{ID: "g"}},
			},
			wantType:  "elevenlabs",
			wantHost:  "h",
			wantGuest: "g",
		},
		{
			name: "fishaudio",
			cfg: config.Config{
				FishAudioAPIKey: "k",
				TTS:             config.TTSConfig{Provider: "fishaudio"},
				FishAudio:       config.FishAudioConfig{HostVoice: config.Voice{ID: "ref-h"}, GuestVoice: config.Voice{ID: "ref-g"}},
			},
			wantType:  "fishaudio",
			wantHost:  "ref-h",
			wantGuest: "ref-g",
		},
		{
			name: "fishaudioWithoutKey",
			cfg: config.Config{
				TTS:       config.TTSConfig{Provider: "fishaudio"},
				FishAudio: config.FishAudioConfig{HostVoice: config.Voice{ID: "ref-h"}, GuestVoice: config.Voice{ID: "ref-g"}},
			},
			wantErr: true,
		},
		{
			name: "fishaudioWithoutVoices",
			cfg: config.Config{
				FishAudioAPIKey: "k",
				TTS:             config.TTSConfig{Provider: "fishaudio"},
			},
			wantErr: true,
		},
		{
			name: "xtts",
			cfg: config.Config{
				TTS:  config.TTSConfig{Provider: "xtts"},
				XTTS: config.XTTSConfig{HostVoice: config.Voice{ID: "host.wav"}, GuestVoice: config.Voice{ID: "guest.wav"}},
			},
			wantType:  "xtts",
			wantHost:  "host.wav",
			wantGuest: "guest.wav",
		},
		{
			name:    "xttsWithoutSamples",
			cfg:     config.Config{TTS: config.TTSConfig{Provider: "xtts"}},
			wantErr: true,
		},
		{
			name:      "stub",
			cfg:       config.Config{TTS: config.TTSConfig{Provider: "stub"}},
			wantType:  "stub",
			wantHost:  "host",
			wantGuest: "guest",
		},
		{
			name:    "unknown",
			cfg:     config.Config{TTS: config.TTSConfig{Provider: "festival"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, voices, err := newSpeechProvider(&tt.cfg, http.DefaultClient)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newSpeechProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			var gotType string
			switch provider.(type) {
			case *murf.Client:
				gotType = "murf"
			case *elevenlabs.Client:
				gotType = "elevenlabs"
			case *xtts.Client:
				gotType = "xtts"
			case *fishaudio.Client:
				gotType = "fishaudio"
			case *speech.StubProvider:
				gotType = "stub"
			}
			if gotType != tt.wantType {
				t.Errorf("provider = %T, want %s", provider, tt.wantType)
			}
			if voices.Host.ID != tt.wantHost || voices.Guest.ID != tt.wantGuest {
				t.Errorf("voices = %+v", voices)
			}
		})
	}
}

func TestNewLLMClientRequiresKey(t *testing.T) {
	cfg := &config.Config{}
	for _, provider := range []string{config.ProviderGroq, config.ProviderGemini, config.ProviderDeepSeek, "openai"} {
		if _, err := newLLMClient(context.Background(), cfg, provider, nil, llm.Tasks{}, http.DefaultClient); err == nil {
			t.Errorf("newLLMClient(%s) without key should fail", provider)
		}
	}
}

func TestNewLLMClientDeepSeek(t *testing.T) {
	cfg := &config.Config{DeepSeekAPIKey: "k"}
	client, err := newLLMClient(context.Background(), cfg, config.ProviderDeepSeek, nil, llm.Tasks{}, http.DefaultClient)
	if err != nil {
		t.Fatalf("newLLMClient(deepseek) error = %v", err)
	}
	if _, ok := client.(*llm.PromptClient); !ok {
		t.Errorf("client = %T, want *llm.PromptClient", client)
	}
}

func TestNewStore(t *testing.T) {
	cfg := &config.Config{Output: config.OutputConfig{Dir: t.TempDir()}}

	store, err := newStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newStore() error = %v", err)
	}
	if _, ok := store.(*storage.LocalStorage); !ok {
		t.Errorf("store = %T, want *storage.LocalStorage", store)
	}

	cfg.Storage.Provider = "s3"
	if _, err := newStore(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown storage provider")
	}
}
