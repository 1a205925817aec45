package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/taxmonster/backend/internal/model/chat"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUpstreamEmpty   = errors.New("completion service returned no content")
	ErrUpstreamFailure = errors.New("completion service failed")
	ErrUpstreamTimeout = errors.New("completion service timed out")
)

// Completer produces a reply for a transcript under a system instruction.
type Completer interface {
	Complete(ctx context.Context, system string, transcript []chat.Message) (string, error)
}

// Synthesizer turns reply text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Options tunes the relay. Zero timeouts disable the corresponding deadline.
type Options struct {
	CompletionTimeout time.Duration
	SpeechTimeout     time.Duration
}

// Service bridges client transcripts to the completion and speech providers.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	completer   Completer
	synthesizer Synthesizer
	system      string
	opts        Options
}

// NewService creates a relay. synthesizer may be nil to disable audio.
func NewService(completer Completer, synthesizer Synthesizer, system string, opts Options) *Service {
	return &Service{
		completer:   completer,
		synthesizer: synthesizer,
		system:      system,
		opts:        opts,
	}
}

// SpeechEnabled reports whether replies may carry audio.
func (s *Service) SpeechEnabled() bool {
	return s.synthesizer != nil
}

// Reply completes the transcript and, when speech is enabled, attaches base64 audio.
// Only the completion can fail the call.
func (s *Service) Reply(ctx context.Context, transcript []chat.Message) (chat.Reply, error) {
	if len(transcript) == 0 {
		return chat.Reply{}, fmt.Errorf("%w: messages are required", ErrInvalidRequest)
	}

	text, audio, err := primaryWithSecondary(ctx,
		func(ctx context.Context) (string, error) { return s.complete(ctx, transcript) },
		s.speak,
	)
	if err != nil {
		return chat.Reply{}, err
	}

	return chat.Reply{Message: text, Audio: audio}, nil
}

func (s *Service) complete(ctx context.Context, transcript []chat.Message) (string, error) {
	if s.opts.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CompletionTimeout)
		defer cancel()
	}

	started := time.Now()
	text, err := s.completer.Complete(ctx, s.system, transcript)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", ErrUpstreamTimeout, time.Since(started).Round(time.Millisecond), err)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrUpstreamEmpty
	}

	log.Printf("[relay] completion turns=%d length=%d elapsed=%s", len(transcript), len(text), time.Since(started).Round(time.Millisecond))
	return text, nil
}

func (s *Service) speak(ctx context.Context, text string) (string, error) {
	if s.synthesizer == nil {
		return "", nil
	}

	if s.opts.SpeechTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SpeechTimeout)
		defer cancel()
	}

	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}

// primaryWithSecondary runs primary, then feeds its result to secondary.
// A primary error is returned as-is; a secondary error is logged and yields
// the zero value so the primary result still goes out.
func primaryWithSecondary[P, S any](
	ctx context.Context,
	primary func(context.Context) (P, error),
	secondary func(context.Context, P) (S, error),
) (P, S, error) {
	var zero S

	result, err := primary(ctx)
	if err != nil {
		return result, zero, err
	}

	extra, err := secondary(ctx, result)
	if err != nil {
		log.Printf("[relay] secondary step degraded: %v", err)
		return result, zero, nil
	}
	return result, extra, nil
}
