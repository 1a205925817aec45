package telegram

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/taxmonster/backend/internal/model/persona"
	chatService "github.com/taxmonster/backend/internal/service/chat"
	"github.com/taxmonster/backend/internal/widget"
)

const busyReply = "Still working on your last question, hang tight."

// Sender is the subset of the bot API the front end uses. *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendAudio(ctx context.Context, params *bot.SendAudioParams) (*models.Message, error)
}

// Frontend runs one widget session per Telegram chat.
type Frontend struct {
	sender        Sender
	persona       persona.Persona
	conversations *chatService.Service
}

// NewFrontend creates a front end that relays through transport.
func NewFrontend(sender Sender, transport widget.Transport, p persona.Persona) *Frontend {
	f := &Frontend{sender: sender, persona: p}
	f.conversations = chatService.NewService(func(key string) *widget.Session {
		return widget.NewSession(transport, widget.Options{
			Greeting: p.Greeting,
			Player:   f.audioPlayer(key),
		})
	})
	return f
}

// Register mounts the command and text handlers.
func (f *Frontend) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, f.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/restart", bot.MatchTypeExact, f.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, f.HandleText)
}

// HandleStart resets the chat and sends the greeting without calling the relay.
func (f *Frontend) HandleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	key := chatKey(chatID)

	f.conversations.Reset(ctx, key)
	conv, _, err := f.conversations.Open(ctx, key)
	if err != nil {
		log.Printf("[telegram] open conversation chat=%d: %v", chatID, err)
		return
	}

	if conv.Session.Greet() {
		f.send(ctx, chatID, f.persona.Greeting)
	}
}

// HandleText submits the message through the chat's widget session.
func (f *Frontend) HandleText(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID

	conv, created, err := f.conversations.Open(ctx, chatKey(chatID))
	if err != nil {
		log.Printf("[telegram] open conversation chat=%d: %v", chatID, err)
		return
	}
	if created {
		log.Printf("[telegram] new conversation chat=%d id=%s", chatID, conv.ID)
	}

	answer, err := conv.Session.QuickQuestion(ctx, update.Message.Text)
	switch {
	case errors.Is(err, widget.ErrBusy):
		f.send(ctx, chatID, busyReply)
	case errors.Is(err, widget.ErrEmptyInput):
	case err != nil:
		log.Printf("[telegram] submit chat=%d: %v", chatID, err)
	default:
		f.send(ctx, chatID, answer.Content)
	}
}

func (f *Frontend) send(ctx context.Context, chatID int64, text string) {
	_, err := f.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: f.keyboard(),
	})
	if err != nil {
		log.Printf("[telegram] send message chat=%d: %v", chatID, err)
	}
}

func (f *Frontend) keyboard() *models.ReplyKeyboardMarkup {
	rows := make([][]models.KeyboardButton, 0, len(f.persona.QuickQuestions))
	for _, q := range f.persona.QuickQuestions {
		rows = append(rows, []models.KeyboardButton{{Text: q}})
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}
}

func (f *Frontend) audioPlayer(key string) widget.AudioPlayer {
	return widget.PlayerFunc(func(ctx context.Context, audio []byte) error {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return err
		}
		_, err = f.sender.SendAudio(ctx, &bot.SendAudioParams{
			ChatID: chatID,
			Audio:  &models.InputFileUpload{Filename: "tax-monster.mp3", Data: bytes.NewReader(audio)},
			Title:  f.persona.Name,
		})
		return err
	})
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
