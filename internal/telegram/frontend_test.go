package telegram

import (
	"context"
	"encoding/base64"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/taxmonster/backend/internal/model/chat"
	"github.com/taxmonster/backend/internal/model/persona"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []*bot.SendMessageParams
	audio    [][]byte
}

func (s *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, params)
	return &models.Message{}, nil
}

func (s *fakeSender) SendAudio(_ context.Context, params *bot.SendAudioParams) (*models.Message, error) {
	upload := params.Audio.(*models.InputFileUpload)
	data, err := io.ReadAll(upload.Data)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, data)
	return &models.Message{}, nil
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Text
	}
	return out
}

type countingTransport struct {
	mu    sync.Mutex
	calls int
	reply chat.Reply
}

func (t *countingTransport) Send(_ context.Context, _ []chat.Message) (chat.Reply, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return t.reply, nil
}

func taxMonster() persona.Persona {
	return persona.Seed()[0]
}

func textUpdate(chatID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{Chat: models.Chat{ID: chatID}, Text: text}}
}

func TestHandleStartGreetsWithoutRelay(t *testing.T) {
	sender := &fakeSender{}
	transport := &countingTransport{}
	f := NewFrontend(sender, transport, taxMonster())

	f.HandleStart(context.Background(), nil, textUpdate(1, "/start"))

	texts := sender.texts()
	if len(texts) != 1 || texts[0] != taxMonster().Greeting {
		t.Fatalf("expected greeting, got %v", texts)
	}
	kb, ok := sender.messages[0].ReplyMarkup.(*models.ReplyKeyboardMarkup)
	if !ok || len(kb.Keyboard) != len(taxMonster().QuickQuestions) {
		t.Fatalf("expected quick question keyboard, got %#v", sender.messages[0].ReplyMarkup)
	}
	if transport.calls != 0 {
		t.Fatal("greeting must not call the relay")
	}
}

func TestHandleTextRelaysAndSendsAudio(t *testing.T) {
	sender := &fakeSender{}
	transport := &countingTransport{reply: chat.Reply{
		Message: "Let's look at a payment plan.",
		Audio:   base64.StdEncoding.EncodeToString([]byte("ID3")),
	}}
	f := NewFrontend(sender, transport, taxMonster())

	f.HandleText(context.Background(), nil, textUpdate(9, "I owe back taxes"))

	texts := sender.texts()
	if len(texts) != 1 || texts[0] != "Let's look at a payment plan." {
		t.Fatalf("unexpected replies %v", texts)
	}

	conv, err := f.conversations.Get(context.Background(), "9")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	conv.Session.WaitPlayback()

	deadline := time.Now().Add(time.Second)
	for {
		sender.mu.Lock()
		n := len(sender.audio)
		sender.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("audio was not sent")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if string(sender.audio[0]) != "ID3" {
		t.Fatalf("unexpected audio %q", sender.audio[0])
	}
}

func TestChatsAreIndependent(t *testing.T) {
	sender := &fakeSender{}
	transport := &countingTransport{reply: chat.Reply{Message: "ok"}}
	f := NewFrontend(sender, transport, taxMonster())
	ctx := context.Background()

	f.HandleText(ctx, nil, textUpdate(1, "first"))
	f.HandleText(ctx, nil, textUpdate(2, "second"))
	f.HandleText(ctx, nil, textUpdate(1, "third"))

	one, _ := f.conversations.Get(ctx, "1")
	two, _ := f.conversations.Get(ctx, "2")
	if len(one.Session.Transcript()) != 4 || len(two.Session.Transcript()) != 2 {
		t.Fatalf("transcripts leaked between chats: %d %d", len(one.Session.Transcript()), len(two.Session.Transcript()))
	}
}

func TestStartResetsTranscript(t *testing.T) {
	sender := &fakeSender{}
	f := NewFrontend(sender, &countingTransport{reply: chat.Reply{Message: "ok"}}, taxMonster())
	ctx := context.Background()

	f.HandleText(ctx, nil, textUpdate(5, "hello"))
	f.HandleStart(ctx, nil, textUpdate(5, "/start"))

	conv, _ := f.conversations.Get(ctx, "5")
	transcript := conv.Session.Transcript()
	if len(transcript) != 1 || transcript[0].Content != taxMonster().Greeting {
		t.Fatalf("expected only the greeting after restart, got %+v", transcript)
	}
}
