package widget

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/taxmonster/backend/internal/model/chat"
)

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrBusy       = errors.New("a reply is already pending")
)

const (
	// FallbackMessage replaces the reply whenever the relay cannot be reached.
	FallbackMessage = "I'm having trouble connecting, please try again or speak with a live representative."

	DefaultGreeting      = "Hey there! I'm Tax Monster. Ready to tackle your IRS problems?"
	DefaultGreetingDelay = 3 * time.Second

	playbackTimeout = 2 * time.Minute
)

// State is the request lifecycle of a session.
type State int

const (
	Idle State = iota
	AwaitingReply
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingReply:
		return "awaiting_reply"
	default:
		return "unknown"
	}
}

// Transport delivers a transcript to the relay and returns its reply.
type Transport interface {
	Send(ctx context.Context, transcript []chat.Message) (chat.Reply, error)
}

// AudioPlayer plays decoded reply audio.
type AudioPlayer interface {
	Play(ctx context.Context, audio []byte) error
}

// PlayerFunc adapts a function to AudioPlayer.
type PlayerFunc func(ctx context.Context, audio []byte) error

func (f PlayerFunc) Play(ctx context.Context, audio []byte) error { return f(ctx, audio) }

// Snapshot is a point-in-time copy of the session for observers.
type Snapshot struct {
	State      State
	Open       bool
	Input      string
	Transcript []chat.Message
}

// Options configures a Session. Zero values select the defaults.
type Options struct {
	Greeting      string
	GreetingDelay time.Duration
	Player        AudioPlayer
	OnChange      func(Snapshot)
}

// Session is one chat surface: its transcript, input field and open state.
// It allows at most one outstanding relay request.
type Session struct {
	transport Transport
	opts      Options

	mu         sync.Mutex
	state      State
	open       bool
	input      string
	transcript []chat.Message
	interacted bool
	greeted    bool
	timer      *time.Timer

	playback sync.WaitGroup
}

// NewSession creates an idle, closed session.
func NewSession(transport Transport, opts Options) *Session {
	if opts.Greeting == "" {
		opts.Greeting = DefaultGreeting
	}
	if opts.GreetingDelay <= 0 {
		opts.GreetingDelay = DefaultGreetingDelay
	}
	return &Session{transport: transport, opts: opts}
}

// Start arms the greeting timer. It has no effect after the first interaction
// or when the timer is already armed.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interacted || s.greeted || s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(s.opts.GreetingDelay, func() { s.Greet() })
}

// Greet opens the session and appends the greeting unless the user has
// already interacted. It never contacts the relay.
func (s *Session) Greet() bool {
	s.mu.Lock()
	if s.interacted || s.greeted {
		s.mu.Unlock()
		return false
	}
	s.greeted = true
	s.open = true
	s.transcript = append(s.transcript, chat.AssistantMessage(s.opts.Greeting))
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// SetInput replaces the input field.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.cancelGreetingLocked()
	s.input = text
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// QuickQuestion fills the input with question and submits it.
func (s *Session) QuickQuestion(ctx context.Context, question string) (chat.Message, error) {
	s.SetInput(question)
	return s.Submit(ctx)
}

// Submit sends the input as a user message and blocks until the reply, or
// the fallback message, has been appended. Relay failures are not returned;
// they surface only as the fallback message.
func (s *Session) Submit(ctx context.Context) (chat.Message, error) {
	s.mu.Lock()
	s.cancelGreetingLocked()

	if strings.TrimSpace(s.input) == "" {
		s.mu.Unlock()
		return chat.Message{}, ErrEmptyInput
	}
	if s.state == AwaitingReply {
		s.mu.Unlock()
		return chat.Message{}, ErrBusy
	}

	s.transcript = append(s.transcript, chat.UserMessage(s.input))
	s.input = ""
	s.state = AwaitingReply
	outbound := s.transcriptLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)

	reply, err := s.transport.Send(ctx, outbound)
	answer := chat.AssistantMessage(reply.Message)
	if err != nil {
		log.Printf("[widget] relay failed: %v", err)
		answer = chat.AssistantMessage(FallbackMessage)
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, answer)
	s.state = Idle
	snap = s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)

	if err == nil && reply.Audio != "" {
		s.play(reply.Audio)
	}
	return answer, nil
}

func (s *Session) play(encoded string) {
	if s.opts.Player == nil {
		return
	}

	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		log.Printf("[widget] discarding undecodable audio: %v", err)
		return
	}

	s.playback.Add(1)
	go func() {
		defer s.playback.Done()
		ctx, cancel := context.WithTimeout(context.Background(), playbackTimeout)
		defer cancel()
		if err := s.opts.Player.Play(ctx, audio); err != nil {
			log.Printf("[widget] audio playback failed: %v", err)
		}
	}()
}

// WaitPlayback blocks until started audio playback has finished.
func (s *Session) WaitPlayback() {
	s.playback.Wait()
}

// Open shows the chat surface.
func (s *Session) Open() {
	s.setOpen(true, false)
}

// Close hides the chat surface and cancels the greeting.
func (s *Session) Close() {
	s.setOpen(false, true)
}

func (s *Session) setOpen(open, interaction bool) {
	s.mu.Lock()
	if interaction {
		s.cancelGreetingLocked()
	}
	s.open = open
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Transcript returns a copy of the conversation.
func (s *Session) Transcript() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcriptLocked()
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) cancelGreetingLocked() {
	s.interacted = true
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Session) transcriptLocked() []chat.Message {
	out := make([]chat.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:      s.state,
		Open:       s.open,
		Input:      s.input,
		Transcript: s.transcriptLocked(),
	}
}

func (s *Session) notify(snap Snapshot) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(snap)
	}
}
