package app

import (
	"papercast/internal/audio"
	"papercast/internal/llm"
	"papercast/internal/pdftext"
	"papercast/internal/podcast"
	"papercast/internal/speech"
	"papercast/internal/storage"
	"papercast/pkg/config"
)

type Service struct {
	cfg         *config.Config
	abstractLLM llm.Client
	podcastLLM  llm.Client
	abstractPDF pdftext.Reader
	podcastPDF  pdftext.Reader
	tts         speech.Provider
	voices      podcast.Voices
	assembler   *audio.Assembler
	store       storage.Store
}

type ServiceOptions struct {
	Config      *config.Config
	AbstractLLM llm.Client
	PodcastLLM  llm.Client
	AbstractPDF pdftext.Reader
	PodcastPDF  pdftext.Reader
	TTS         speech.Provider
	Voices      podcast.Voices
	Assembler   *audio.Assembler
	Store       storage.Store
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:         opts.Config,
		abstractLLM: opts.AbstractLLM,
		podcastLLM:  opts.PodcastLLM,
		abstractPDF: opts.AbstractPDF,
		podcastPDF:  opts.PodcastPDF,
		tts:         opts.TTS,
		voices:      opts.Voices,
		assembler:   opts.Assembler,
		store:       opts.Store,
	}
}

func (s *Service) Config() *config.Config      { return s.cfg }
func (s *Service) AbstractLLM() llm.Client     { return s.abstractLLM }
func (s *Service) PodcastLLM() llm.Client      { return s.podcastLLM }
func (s *Service) AbstractPDF() pdftext.Reader { return s.abstractPDF }
func (s *Service) PodcastPDF() pdftext.Reader  { return s.podcastPDF }
func (s *Service) TTS() speech.Provider        { return s.tts }
func (s *Service) Voices() podcast.Voices      { return s.voices }
func (s *Service) Assembler() *audio.Assembler { return s.assembler }
func (s *Service) Store() storage.Store        { return s.store }

// Close releases the artifact store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
