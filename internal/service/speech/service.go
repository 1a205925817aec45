package speech

import (
	"context"
	"fmt"

	"github.com/taxmonster/backend/internal/config"
	"github.com/taxmonster/backend/internal/model/speech"
)

// Synthesizer is the provider contract behind Service.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error)
}

// Service turns reply text into audio with a fixed voice selection.
type Service struct {
	config  config.SpeechConfig
	backend Synthesizer
}

// NewService selects the provider named in cfg. It returns nil when speech is disabled.
func NewService(cfg config.SpeechConfig) (*Service, error) {
	var backend Synthesizer

	switch cfg.Provider {
	case config.SpeechProviderNone:
		return nil, nil
	case config.SpeechProviderOpenAI:
		synth, err := NewOpenAISynthesizer(cfg)
		if err != nil {
			return nil, err
		}
		backend = synth
	case config.SpeechProviderVolcengine:
		if _, _, err := resolveCredentials(cfg); err != nil {
			return nil, err
		}
		backend = NewVolcengineTTSClient(cfg, "")
	default:
		return nil, fmt.Errorf("unsupported speech provider %q", cfg.Provider)
	}

	return NewServiceWithBackend(cfg, backend), nil
}

// NewServiceWithBackend wires an explicit provider.
func NewServiceWithBackend(cfg config.SpeechConfig, backend Synthesizer) *Service {
	return &Service{config: cfg, backend: backend}
}

// Synthesize returns audio bytes for text using the configured voice.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.SynthesizeToBuffer(ctx, "", text, s.config.Voice, s.config.TTSLanguage)
	if err != nil {
		return nil, err
	}
	return resp.AudioData, nil
}

// SynthesizeToBuffer performs a full synthesis request.
func (s *Service) SynthesizeToBuffer(ctx context.Context, sessionID, text, voice, language string) (*speech.TTSResponse, error) {
	return s.backend.SynthesizeSpeech(ctx, &speech.TTSRequest{
		SessionID: sessionID,
		Text:      text,
		Voice:     voice,
		Language:  language,
		Format:    "mp3",
	})
}
