package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"papercast/internal/audio"
	"papercast/internal/llm"
	"papercast/internal/llm/deepseek"
	"papercast/internal/llm/gemini"
	"papercast/internal/llm/groq"
	"papercast/internal/pdftext"
	"papercast/internal/podcast"
	"papercast/internal/speech"
	"papercast/internal/speech/elevenlabs"
	"papercast/internal/speech/fishaudio"
	"papercast/internal/speech/murf"
	"papercast/internal/speech/xtts"
	"papercast/internal/storage"
	"papercast/pkg/config"
	"papercast/pkg/httputil"
	"papercast/pkg/prompts"
)

// BuildService wires every client from cfg. Providers whose credentials are
// missing are left nil; the stage that needs them reports a service error.
func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}
	tasks := llm.TasksFromConfig(cfg)

	httpClient := httputil.NewRetryClient(
		&http.Client{Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second},
		httputil.RetryConfig{MaxRetries: cfg.HTTP.MaxRetries},
	)

	abstractLLM, err := newLLMClient(ctx, cfg, cfg.Abstract.Provider, p, tasks, httpClient)
	if err != nil {
		slog.Warn("Graphical abstract LLM unavailable", "provider", cfg.Abstract.Provider, "error", err)
	}
	podcastLLM, err := newLLMClient(ctx, cfg, cfg.Podcast.Provider, p, tasks, httpClient)
	if err != nil {
		slog.Warn("Podcast LLM unavailable", "provider", cfg.Podcast.Provider, "error", err)
	}

	abstractPDF, err := pdftext.NewReader(cfg.PDF.AbstractBackend)
	if err != nil {
		return nil, err
	}
	podcastPDF, err := pdftext.NewReader(cfg.PDF.PodcastBackend)
	if err != nil {
		return nil, err
	}

	ttsProvider, voices, err := newSpeechProvider(cfg, httpClient)
	if err != nil {
		slog.Warn("Speech provider unavailable", "provider", cfg.TTS.Provider, "error", err)
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	assembler := audio.NewAssembler(cfg.Audio.FFmpegPath,
		audio.WithGap(time.Duration(cfg.Audio.GapMs)*time.Millisecond),
	)

	return NewService(ServiceOptions{
		Config:      cfg,
		AbstractLLM: abstractLLM,
		PodcastLLM:  podcastLLM,
		AbstractPDF: abstractPDF,
		PodcastPDF:  podcastPDF,
		TTS:         ttsProvider,
		Voices:      voices,
		Assembler:   assembler,
		Store:       store,
	}), nil
}

func newLLMClient(ctx context.Context, cfg *config.Config, provider string, p *prompts.Prompts, tasks llm.Tasks, doer httputil.Doer) (llm.Client, error) {
	var completer llm.Completer
	switch provider {
	case config.ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is not set")
		}
		client, err := groq.NewClient(cfg.GroqAPIKey, cfg.Groq.Model)
		if err != nil {
			return nil, err
		}
		completer = client
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		completer = client
	case config.ProviderDeepSeek:
		if cfg.DeepSeekAPIKey == "" {
			return nil, fmt.Errorf("DEEPSEEK_API_KEY is not set")
		}
		completer = deepseek.NewClient(deepseek.Config{
			APIKey: cfg.DeepSeekAPIKey,
			URL:    cfg.DeepSeek.URL,
			Model:  cfg.DeepSeek.Model,
		}, doer)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
	return llm.NewPromptClient(completer, p, tasks), nil
}

func newSpeechProvider(cfg *config.Config, doer httputil.Doer) (speech.Provider, podcast.Voices, error) {
	switch cfg.TTS.Provider {
	case "murf":
		voices := podcast.Voices{
			Host:  speech.Voice{ID: cfg.Murf.HostVoice.ID, Name: cfg.Murf.HostVoice.Name},
			Guest: speech.Voice{ID: cfg.Murf.GuestVoice.ID, Name: cfg.Murf.GuestVoice.Name},
		}
		if cfg.MurfAPIKey == "" {
			return nil, voices, fmt.Errorf("MURF_API_KEY is not set")
		}
		return murf.NewClient(murf.Config{
			APIKey:       cfg.MurfAPIKey,
			URL:          cfg.Murf.URL,
			Style:        cfg.Murf.Style,
			Rate:         cfg.Murf.Rate,
			Pitch:        cfg.Murf.Pitch,
			SampleRate:   cfg.Murf.SampleRate,
			Format:       cfg.Murf.Format,
			ChannelType:  cfg.Murf.ChannelType,
			ModelVersion: cfg.Murf.ModelVersion,
			Locale:       cfg.Murf.Locale,
		}, doer), voices, nil
	case "elevenlabs":
		voices := podcast.Voices{
			Host:  speech.Voice{ID: cfg.ElevenLabs.HostVoice.ID, Name: cfg.ElevenLabs.HostVoice.Name},
			Guest: speech.Voice{ID: cfg.ElevenLabs.GuestVoice.ID, Name: cfg.ElevenLabs.GuestVoice.Name},
		}
		keys := elevenlabs.SplitKeys(cfg.ElevenLabsAPIKey)
		if len(keys) == 0 {
			return nil, voices, fmt.Errorf("ELEVENLABS_API_KEY is not set")
		}
		return elevenlabs.NewClient(elevenlabs.Config{
			APIKeys:    keys,
			Model:      cfg.ElevenLabs.Model,
			Stability:  cfg.ElevenLabs.Stability,
			Similarity: cfg.ElevenLabs.Similarity,
		}, doer), voices, nil
	case "fishaudio":
		voices := podcast.Voices{
			Host:  speech.Voice{ID: cfg.FishAudio.HostVoice.ID, Name: cfg.FishAudio.HostVoice.Name},
			Guest: speech.Voice{ID: cfg.FishAudio.GuestVoice.ID, Name: cfg.FishAudio.GuestVoice.Name},
		}
		if cfg.FishAudioAPIKey == "" {
			return nil, voices, fmt.Errorf("FISH_AUDIO_API_KEY is not set")
		}
		if voices.Host.ID == "" || voices.Guest.ID == "" {
			return nil, voices, fmt.Errorf("fishaudio needs host_voice and guest_voice reference ids")
		}
		return fishaudio.NewClient(fishaudio.Config{
			APIKey:  cfg.FishAudioAPIKey,
			URL:     cfg.FishAudio.URL,
			Bitrate: cfg.FishAudio.Bitrate,
			Speed:   cfg.FishAudio.Speed,
		}, doer), voices, nil
	case "xtts":
		voices := podcast.Voices{
			Host:  speech.Voice{ID: cfg.XTTS.HostVoice.ID, Name: cfg.XTTS.HostVoice.Name},
			Guest: speech.Voice{ID: cfg.XTTS.GuestVoice.ID, Name: cfg.XTTS.GuestVoice.Name},
		}
		if voices.Host.ID == "" || voices.Guest.ID == "" {
			return nil, voices, fmt.Errorf("xtts needs host_voice and guest_voice speaker samples")
		}
		return xtts.NewClient(xtts.Config{
			ServerURL: cfg.XTTS.URL,
			Language:  cfg.XTTS.Language,
		}, doer), voices, nil
	case "stub":
		return speech.NewStubProvider(speech.DefaultWordsPerMinute), podcast.Voices{
			Host:  speech.Voice{ID: "host", Name: "Host"},
			Guest: speech.Voice{ID: "guest", Name: "Guest"},
		}, nil
	default:
		return nil, podcast.Voices{}, fmt.Errorf("unknown tts provider: %s", cfg.TTS.Provider)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Provider {
	case storage.ProviderLocal, "":
		local := storage.NewLocalStorage(cfg.Output.Dir)
		if err := local.EnsureDirectories(); err != nil {
			return nil, err
		}
		return local, nil
	case storage.ProviderGCS:
		return storage.NewGCSStorage(ctx, cfg.GCSBucket, cfg.Storage.Prefix, cfg.Storage.Endpoint)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
}
