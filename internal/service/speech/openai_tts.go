package speech

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/taxmonster/backend/internal/config"
	"github.com/taxmonster/backend/internal/model/speech"
)

// OpenAISynthesizer calls the OpenAI audio speech endpoint.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
	speed  float32
}

// NewOpenAISynthesizer creates a synthesizer with a fixed model and default voice.
func NewOpenAISynthesizer(cfg config.SpeechConfig) (*OpenAISynthesizer, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI speech requires an API key", config.ErrMissingCredential)
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	model := openai.TTSModel1
	if cfg.Model != "" {
		model = openai.SpeechModel(cfg.Model)
	}
	voice := openai.VoiceAlloy
	if cfg.Voice != "" {
		voice = openai.SpeechVoice(cfg.Voice)
	}

	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		voice:  voice,
		speed:  cfg.TTSSpeed,
	}, nil
}

// SynthesizeSpeech returns MP3 audio for req.Text.
func (s *OpenAISynthesizer) SynthesizeSpeech(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("TTS text is empty")
	}

	voice := s.voice
	if req.Voice != "" {
		voice = openai.SpeechVoice(req.Voice)
	}

	speechReq := openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}
	if s.speed > 0 && s.speed != 1.0 {
		speechReq.Speed = float64(s.speed)
	}

	resp, err := s.client.CreateSpeech(ctx, speechReq)
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read openai speech body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("TTS audio is empty")
	}

	return &speech.TTSResponse{
		SessionID: req.SessionID,
		AudioData: audio,
		Format:    "mp3",
		Voice:     string(voice),
		CreatedAt: time.Now(),
	}, nil
}
