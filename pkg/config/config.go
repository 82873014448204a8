package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath     = "config.yaml"
	defaultOutputDir      = "./output"
	defaultGroqModel      = "llama-3.3-70b-versatile"
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultAbstractLLM    = ProviderGroq
	defaultPodcastLLM     = ProviderGemini
	defaultAbstractPDF    = "ledongthuc"
	defaultPodcastPDF     = "fitz"
	defaultPrefixChars    = 15000
	defaultTTSProvider    = "murf"
	defaultMurfURL        = "https://api.murf.ai/v1/speech/generate"
	defaultMurfStyle      = "Conversational"
	defaultMurfRate       = 11
	defaultMurfSampleRate = 48000
	defaultMurfFormat     = "MP3"
	defaultMurfChannel    = "MONO"
	defaultMurfModel      = "GEN2"
	defaultMurfLocale     = "en-IN"
	defaultHostVoice      = "en-IN-arohi"
	defaultGuestVoice     = "en-IN-aarav"
	defaultElevenModel    = "eleven_multilingual_v2"
	defaultElevenHost     = "21m00Tcm4TlvDq8Ikwam"
	defaultElevenGuest    = "pNInz6obpgDQGcFmaJgB"
	defaultXTTSURL        = "http://localhost:8020"
	defaultDeepSeekURL    = "https://api.deepseek.com/v1/chat/completions"
	defaultDeepSeekModel  = "deepseek-chat"
	defaultFishAudioURL   = "https://api.fish.audio/v1/tts"
	defaultFishBitrate    = 128
	defaultFishSpeed      = 1.0
	defaultXTTSLanguage   = "en"
	defaultParallelism    = 1
	defaultFFmpegPath     = "ffmpeg"
	defaultGapMs          = 500
	defaultStorage        = "local"
	defaultServerAddr     = ":8080"
	defaultMaxUploadMB    = 20
	defaultRequestTimeout = 600
	defaultHTTPTimeout    = 120
	defaultSecretsPrefix  = "papercast-"
)

const (
	ProviderGroq     = "groq"
	ProviderGemini   = "gemini"
	ProviderDeepSeek = "deepseek"
)

type Config struct {
	GroqAPIKey       string
	GeminiAPIKey     string
	MurfAPIKey       string
	ElevenLabsAPIKey string
	DeepSeekAPIKey   string
	FishAudioAPIKey  string
	GCPProject       string
	GCSBucket        string

	Groq       GroqConfig       `yaml:"groq"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	PDF        PDFConfig        `yaml:"pdf"`
	Abstract   AbstractConfig   `yaml:"abstract"`
	Podcast    PodcastConfig    `yaml:"podcast"`
	TTS        TTSConfig        `yaml:"tts"`
	Murf       MurfConfig       `yaml:"murf"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	XTTS       XTTSConfig       `yaml:"xtts"`
	DeepSeek   DeepSeekConfig   `yaml:"deepseek"`
	FishAudio  FishAudioConfig  `yaml:"fishaudio"`
	Audio      AudioConfig      `yaml:"audio"`
	Output     OutputConfig     `yaml:"output"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	HTTP       HTTPConfig       `yaml:"http"`
	Secrets    SecretsConfig    `yaml:"secrets"`
}

type GroqConfig struct {
	Model string `yaml:"model"`
}

type GeminiConfig struct {
	Model string `yaml:"model"`
}

type DeepSeekConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// FishAudioConfig voices are Fish Audio reference model ids.
type FishAudioConfig struct {
	URL        string  `yaml:"url"`
	Bitrate    int     `yaml:"mp3_bitrate"`
	Speed      float64 `yaml:"speed"`
	HostVoice  Voice   `yaml:"host_voice"`
	GuestVoice Voice   `yaml:"guest_voice"`
}

type PDFConfig struct {
	AbstractBackend string `yaml:"abstract_backend"`
	PodcastBackend  string `yaml:"podcast_backend"`
	PrefixChars     int    `yaml:"prefix_chars"`
}

// Generation holds per-task completion parameters. Zero TopP/TopK leave the
// provider default in place.
type Generation struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TopP        float32 `yaml:"top_p"`
	TopK        int     `yaml:"top_k"`
}

type AbstractConfig struct {
	Provider   string     `yaml:"provider"`
	Workflow   Generation `yaml:"workflow"`
	Components Generation `yaml:"components"`
}

type PodcastConfig struct {
	Provider string     `yaml:"provider"`
	Script   Generation `yaml:"script"`
}

type TTSConfig struct {
	Provider    string `yaml:"provider"` // "murf", "elevenlabs", "fishaudio", "xtts" or "stub"
	Parallelism int    `yaml:"parallelism"`
}

type Voice struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type MurfConfig struct {
	URL          string `yaml:"url"`
	Style        string `yaml:"style"`
	Rate         int    `yaml:"rate"`
	Pitch        int    `yaml:"pitch"`
	SampleRate   int    `yaml:"sample_rate"`
	Format       string `yaml:"format"`
	ChannelType  string `yaml:"channel_type"`
	ModelVersion string `yaml:"model_version"`
	Locale       string `yaml:"locale"`
	HostVoice    Voice  `yaml:"host_voice"`
	GuestVoice   Voice  `yaml:"guest_voice"`
}

type ElevenLabsConfig struct {
	Model      string  `yaml:"model"`
	Stability  float64 `yaml:"stability"`
	Similarity float64 `yaml:"similarity"`
	HostVoice  Voice   `yaml:"host_voice"`
	GuestVoice Voice   `yaml:"guest_voice"`
}

// XTTSConfig points at a self-hosted XTTS v2 server. Voice ids are speaker
// sample paths on that server.
type XTTSConfig struct {
	URL        string `yaml:"url"`
	Language   string `yaml:"language"`
	HostVoice  Voice  `yaml:"host_voice"`
	GuestVoice Voice  `yaml:"guest_voice"`
}

type AudioConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
	GapMs      int    `yaml:"gap_ms"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type StorageConfig struct {
	Provider string `yaml:"provider"` // "local" or "gcs"
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadMB    int    `yaml:"max_upload_mb"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
}

type HTTPConfig struct {
	MaxRetries     int `yaml:"max_retries"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type SecretsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
}

func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, getEnvOrDefault("PAPERCAST_CONFIG", defaultConfigPath))
}

func LoadFrom(ctx context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		MurfAPIKey:       os.Getenv("MURF_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		DeepSeekAPIKey:   os.Getenv("DEEPSEEK_API_KEY"),
		FishAudioAPIKey:  os.Getenv("FISH_AUDIO_API_KEY"),
		GCPProject:       os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCSBucket:        os.Getenv("GCS_BUCKET"),
	}

	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if cfg.Secrets.Enabled && cfg.GCPProject != "" {
		source, err := NewSecretManagerSource(ctx, cfg.GCPProject, cfg.Secrets.Prefix)
		if err != nil {
			return nil, fmt.Errorf("connect secret manager: %w", err)
		}
		defer func() { _ = source.Close() }()
		resolveSecrets(ctx, cfg, source)
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No config file found, using defaults", "path", path)
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyLLMDefaults(cfg)
	applyPDFDefaults(cfg)
	applyTTSDefaults(cfg)
	applyMurfDefaults(cfg)
	applyElevenLabsDefaults(cfg)
	applyXTTSDefaults(cfg)
	applyFishAudioDefaults(cfg)
	applyAudioDefaults(cfg)
	applyOutputDefaults(cfg)
	applyServerDefaults(cfg)
	applyHTTPDefaults(cfg)
}

func applyLLMDefaults(cfg *Config) {
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = defaultGeminiModel
	}
	if cfg.DeepSeek.URL == "" {
		cfg.DeepSeek.URL = defaultDeepSeekURL
	}
	if cfg.DeepSeek.Model == "" {
		cfg.DeepSeek.Model = defaultDeepSeekModel
	}
	if cfg.Abstract.Provider == "" {
		cfg.Abstract.Provider = defaultAbstractLLM
	}
	if cfg.Podcast.Provider == "" {
		cfg.Podcast.Provider = defaultPodcastLLM
	}
	fillGeneration(&cfg.Abstract.Workflow, Generation{MaxTokens: 1000, Temperature: 0.3})
	fillGeneration(&cfg.Abstract.Components, Generation{MaxTokens: 1000, Temperature: 0.2})
	fillGeneration(&cfg.Podcast.Script, Generation{MaxTokens: 8192, Temperature: 1, TopP: 0.95, TopK: 40})
}

func fillGeneration(g *Generation, def Generation) {
	if g.MaxTokens == 0 {
		g.MaxTokens = def.MaxTokens
	}
	if g.Temperature == 0 {
		g.Temperature = def.Temperature
	}
	if g.TopP == 0 {
		g.TopP = def.TopP
	}
	if g.TopK == 0 {
		g.TopK = def.TopK
	}
}

func applyPDFDefaults(cfg *Config) {
	if cfg.PDF.AbstractBackend == "" {
		cfg.PDF.AbstractBackend = defaultAbstractPDF
	}
	if cfg.PDF.PodcastBackend == "" {
		cfg.PDF.PodcastBackend = defaultPodcastPDF
	}
	if cfg.PDF.PrefixChars == 0 {
		cfg.PDF.PrefixChars = defaultPrefixChars
	}
}

func applyTTSDefaults(cfg *Config) {
	if cfg.TTS.Provider == "" {
		cfg.TTS.Provider = defaultTTSProvider
	}
	if cfg.TTS.Parallelism <= 0 {
		cfg.TTS.Parallelism = defaultParallelism
	}
}

func applyMurfDefaults(cfg *Config) {
	m := &cfg.Murf
	if m.URL == "" {
		m.URL = defaultMurfURL
	}
	if m.Style == "" {
		m.Style = defaultMurfStyle
	}
	if m.Rate == 0 {
		m.Rate = defaultMurfRate
	}
	if m.SampleRate == 0 {
		m.SampleRate = defaultMurfSampleRate
	}
	if m.Format == "" {
		m.Format = defaultMurfFormat
	}
	if m.ChannelType == "" {
		m.ChannelType = defaultMurfChannel
	}
	if m.ModelVersion == "" {
		m.ModelVersion = defaultMurfModel
	}
	if m.Locale == "" {
		m.Locale = defaultMurfLocale
	}
	if m.HostVoice.ID == "" {
		m.HostVoice.ID = defaultHostVoice
	}
	if m.GuestVoice.ID == "" {
		m.GuestVoice.ID = defaultGuestVoice
	}
}

func applyElevenLabsDefaults(cfg *Config) {
	e := &cfg.ElevenLabs
	if e.Model == "" {
		e.Model = defaultElevenModel
	}
	if e.Stability == 0 {
		e.Stability = 0.5
	}
	if e.Similarity == 0 {
		e.Similarity = 0.75
	}
	if e.HostVoice.ID == "" {
		e.HostVoice.ID = defaultElevenHost
	}
	if e.GuestVoice.ID == "" {
		e.GuestVoice.ID = defaultElevenGuest
	}
}

func applyXTTSDefaults(cfg *Config) {
	if cfg.XTTS.URL == "" {
		cfg.XTTS.URL = defaultXTTSURL
	}
	if cfg.XTTS.Language == "" {
		cfg.XTTS.Language = defaultXTTSLanguage
	}
}

func applyFishAudioDefaults(cfg *Config) {
	f := &cfg.FishAudio
	if f.URL == "" {
		f.URL = defaultFishAudioURL
	}
	if f.Bitrate == 0 {
		f.Bitrate = defaultFishBitrate
	}
	if f.Speed == 0 {
		f.Speed = defaultFishSpeed
	}
}

func applyAudioDefaults(cfg *Config) {
	if cfg.Audio.FFmpegPath == "" {
		cfg.Audio.FFmpegPath = defaultFFmpegPath
	}
	if cfg.Audio.GapMs == 0 {
		cfg.Audio.GapMs = defaultGapMs
	}
}

func applyOutputDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = defaultStorage
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = defaultMaxUploadMB
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Secrets.Prefix == "" {
		cfg.Secrets.Prefix = defaultSecretsPrefix
	}
}

func applyHTTPDefaults(cfg *Config) {
	if cfg.HTTP.MaxRetries < 0 {
		cfg.HTTP.MaxRetries = 0
	}
	if cfg.HTTP.TimeoutSeconds == 0 {
		cfg.HTTP.TimeoutSeconds = defaultHTTPTimeout
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
