package widget

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/taxmonster/backend/internal/model/chat"
)

type recordingTransport struct {
	mu     sync.Mutex
	calls  [][]chat.Message
	reply  chat.Reply
	err    error
	gate   chan struct{}
	called chan struct{}
}

func (t *recordingTransport) Send(ctx context.Context, transcript []chat.Message) (chat.Reply, error) {
	t.mu.Lock()
	t.calls = append(t.calls, transcript)
	t.mu.Unlock()

	if t.called != nil {
		t.called <- struct{}{}
	}
	if t.gate != nil {
		select {
		case <-t.gate:
		case <-ctx.Done():
			return chat.Reply{}, ctx.Err()
		}
	}
	return t.reply, t.err
}

func (t *recordingTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func TestSubmitAppendsUserThenAssistant(t *testing.T) {
	transport := &recordingTransport{reply: chat.Reply{Message: "A W-2 reports wages."}}
	s := NewSession(transport, Options{})

	s.SetInput("What is a W-2?")
	answer, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if len(transport.calls) != 1 {
		t.Fatalf("expected one relay call, got %d", len(transport.calls))
	}
	sent := transport.calls[0]
	if len(sent) != 1 || sent[0] != chat.UserMessage("What is a W-2?") {
		t.Fatalf("relay transcript must end with the new user message, got %+v", sent)
	}

	transcript := s.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("expected 2 messages, got %+v", transcript)
	}
	want := chat.AssistantMessage("A W-2 reports wages.")
	if transcript[1] != want || answer != want {
		t.Fatalf("expected last entry %+v, got %+v", want, transcript[1])
	}
	if s.Input() != "" {
		t.Fatalf("input must be cleared, got %q", s.Input())
	}
	if s.State() != Idle {
		t.Fatalf("expected Idle, got %s", s.State())
	}
}

func TestSubmitSendsFullTranscript(t *testing.T) {
	transport := &recordingTransport{reply: chat.Reply{Message: "ok"}}
	s := NewSession(transport, Options{})

	for _, q := range []string{"first", "second"} {
		s.SetInput(q)
		if _, err := s.Submit(context.Background()); err != nil {
			t.Fatalf("Submit %q: %v", q, err)
		}
	}

	last := transport.calls[1]
	if len(last) != 3 {
		t.Fatalf("expected 3 messages on second turn, got %+v", last)
	}
	if last[2] != chat.UserMessage("second") || last[1] != chat.AssistantMessage("ok") {
		t.Fatalf("unexpected second-turn transcript %+v", last)
	}
}

func TestSubmitBlankInputIsNoop(t *testing.T) {
	transport := &recordingTransport{reply: chat.Reply{Message: "unused"}}
	s := NewSession(transport, Options{})

	for _, input := range []string{"", "   ", "\n\t"} {
		s.SetInput(input)
		if _, err := s.Submit(context.Background()); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("input %q: expected ErrEmptyInput, got %v", input, err)
		}
	}

	if len(s.Transcript()) != 0 || s.State() != Idle {
		t.Fatalf("blank submit changed session: %+v", s.Snapshot())
	}
	if transport.callCount() != 0 {
		t.Fatalf("blank submit reached the relay")
	}
}

func TestSubmitWhileAwaitingReplyIsRejected(t *testing.T) {
	transport := &recordingTransport{
		reply:  chat.Reply{Message: "done"},
		gate:   make(chan struct{}),
		called: make(chan struct{}, 1),
	}
	s := NewSession(transport, Options{})

	s.SetInput("first")
	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()

	<-transport.called
	if s.State() != AwaitingReply {
		t.Fatalf("expected AwaitingReply, got %s", s.State())
	}

	for i := 0; i < 3; i++ {
		s.SetInput("again")
		if _, err := s.Submit(context.Background()); !errors.Is(err, ErrBusy) {
			t.Fatalf("expected ErrBusy, got %v", err)
		}
	}

	close(transport.gate)
	if err := <-done; err != nil {
		t.Fatalf("first submit err: %v", err)
	}

	if transport.callCount() != 1 {
		t.Fatalf("expected one relay call, got %d", transport.callCount())
	}
	if s.Input() != "again" {
		t.Fatalf("rejected submit must keep the input, got %q", s.Input())
	}
	if got := len(s.Transcript()); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
}

func TestSubmitFailureAppendsFallback(t *testing.T) {
	transport := &recordingTransport{err: errors.New("relay returned 500")}
	s := NewSession(transport, Options{})

	s.SetInput("Can I settle my tax debt?")
	answer, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("relay failures must not surface as errors: %v", err)
	}
	if answer.Content != FallbackMessage || answer.Role != chat.RoleAssistant {
		t.Fatalf("unexpected fallback %+v", answer)
	}
	if s.State() != Idle {
		t.Fatalf("expected Idle after failure, got %s", s.State())
	}
	if transport.callCount() != 1 {
		t.Fatalf("failure must not be retried, calls=%d", transport.callCount())
	}
}

func TestQuickQuestionSubmits(t *testing.T) {
	transport := &recordingTransport{reply: chat.Reply{Message: "Let's look at your options."}}
	s := NewSession(transport, Options{})

	if _, err := s.QuickQuestion(context.Background(), "I owe back taxes"); err != nil {
		t.Fatalf("QuickQuestion err: %v", err)
	}
	transcript := s.Transcript()
	if len(transcript) != 2 || transcript[0] != chat.UserMessage("I owe back taxes") {
		t.Fatalf("unexpected transcript %+v", transcript)
	}
}

func TestGreetingFiresWithoutInteraction(t *testing.T) {
	transport := &recordingTransport{}
	changed := make(chan Snapshot, 4)
	s := NewSession(transport, Options{
		GreetingDelay: 10 * time.Millisecond,
		OnChange:      func(snap Snapshot) { changed <- snap },
	})

	s.Start()

	select {
	case snap := <-changed:
		if !snap.Open {
			t.Fatal("greeting must open the widget")
		}
		if len(snap.Transcript) != 1 || snap.Transcript[0] != chat.AssistantMessage(DefaultGreeting) {
			t.Fatalf("unexpected greeting transcript %+v", snap.Transcript)
		}
	case <-time.After(time.Second):
		t.Fatal("greeting did not fire")
	}

	if transport.callCount() != 0 {
		t.Fatal("greeting must not call the relay")
	}
	if s.Greet() {
		t.Fatal("greeting must only be injected once")
	}
}

func TestGreetingCancelledByInteraction(t *testing.T) {
	interactions := map[string]func(*Session){
		"input":  func(s *Session) { s.SetInput("h") },
		"close":  func(s *Session) { s.Close() },
		"submit": func(s *Session) { _, _ = s.Submit(context.Background()) },
	}

	for name, interact := range interactions {
		t.Run(name, func(t *testing.T) {
			s := NewSession(&recordingTransport{}, Options{GreetingDelay: 20 * time.Millisecond})
			s.Start()
			interact(s)

			time.Sleep(60 * time.Millisecond)

			for _, m := range s.Transcript() {
				if m.Content == DefaultGreeting {
					t.Fatal("greeting fired after interaction")
				}
			}
			if name != "close" && s.IsOpen() {
				t.Fatal("widget opened after interaction")
			}

			// A later Start must not re-arm the cancelled timer.
			s.Start()
			time.Sleep(60 * time.Millisecond)
			if len(s.Transcript()) != 0 {
				t.Fatalf("unexpected transcript %+v", s.Transcript())
			}
		})
	}
}

func TestOpenDoesNotCancelGreeting(t *testing.T) {
	s := NewSession(&recordingTransport{}, Options{GreetingDelay: 10 * time.Millisecond})
	s.Start()
	s.Open()

	deadline := time.Now().Add(time.Second)
	for len(s.Transcript()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("greeting did not fire after manual open")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAudioIsPlayedOutOfBand(t *testing.T) {
	played := make(chan []byte, 1)
	player := PlayerFunc(func(_ context.Context, audio []byte) error {
		played <- audio
		return errors.New("speaker unplugged")
	})
	transport := &recordingTransport{reply: chat.Reply{
		Message: "hi",
		Audio:   base64.StdEncoding.EncodeToString([]byte("ID3")),
	}}
	s := NewSession(transport, Options{Player: player})

	s.SetInput("hello")
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	s.WaitPlayback()

	if got := string(<-played); got != "ID3" {
		t.Fatalf("unexpected audio %q", got)
	}
	transcript := s.Transcript()
	if transcript[len(transcript)-1] != chat.AssistantMessage("hi") {
		t.Fatalf("playback failure leaked into transcript: %+v", transcript)
	}
}

func TestUndecodableAudioIsDropped(t *testing.T) {
	player := PlayerFunc(func(context.Context, []byte) error {
		t.Error("player must not run for undecodable audio")
		return nil
	})
	transport := &recordingTransport{reply: chat.Reply{Message: "hi", Audio: "%%%"}}
	s := NewSession(transport, Options{Player: player})

	s.SetInput("hello")
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	s.WaitPlayback()

	if got := s.Transcript(); len(got) != 2 || got[1].Content != "hi" {
		t.Fatalf("unexpected transcript %+v", got)
	}
}

func TestOnChangeObservesTransitions(t *testing.T) {
	var (
		mu     sync.Mutex
		states []State
	)
	transport := &recordingTransport{reply: chat.Reply{Message: "ok"}}
	s := NewSession(transport, Options{OnChange: func(snap Snapshot) {
		mu.Lock()
		states = append(states, snap.State)
		mu.Unlock()
	}})

	s.SetInput("hi")
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{Idle, AwaitingReply, Idle}
	if len(states) != len(want) {
		t.Fatalf("expected %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, states)
		}
	}
}

func TestTranscriptIsCopy(t *testing.T) {
	transport := &recordingTransport{reply: chat.Reply{Message: "ok"}}
	s := NewSession(transport, Options{})
	s.SetInput("hi")
	_, _ = s.Submit(context.Background())

	got := s.Transcript()
	got[0].Content = "mutated"
	if s.Transcript()[0].Content != "hi" {
		t.Fatal("Transcript must return a copy")
	}
}
