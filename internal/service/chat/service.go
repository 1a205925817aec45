package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taxmonster/backend/internal/widget"
)

var (
	ErrKeyRequired          = errors.New("conversation key is required")
	ErrConversationNotFound = errors.New("conversation not found")
)

// Conversation binds an external chat (a Telegram chat id, a terminal) to a widget session.
type Conversation struct {
	ID        string
	Key       string
	CreatedAt time.Time
	Session   *widget.Session
}

// SessionFactory builds the widget session for a new conversation.
type SessionFactory func(key string) *widget.Session

// Service keeps one in-memory conversation per key. Nothing is persisted.
type Service struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	newSession    SessionFactory
}

// NewService creates an empty registry.
func NewService(newSession SessionFactory) *Service {
	return &Service{
		conversations: make(map[string]*Conversation),
		newSession:    newSession,
	}
}

// Open returns the conversation for key, creating it on first use.
// created reports whether a new session was provisioned.
func (s *Service) Open(_ context.Context, key string) (conv *Conversation, created bool, err error) {
	if key == "" {
		return nil, false, ErrKeyRequired
	}

	s.mu.RLock()
	conv, ok := s.conversations[key]
	s.mu.RUnlock()
	if ok {
		return conv, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[key]; ok {
		return conv, false, nil
	}

	conv = &Conversation{
		ID:        uuid.NewString(),
		Key:       key,
		CreatedAt: time.Now().UTC(),
		Session:   s.newSession(key),
	}
	s.conversations[key] = conv
	return conv, true, nil
}

// Get retrieves an existing conversation.
func (s *Service) Get(_ context.Context, key string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[key]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// Reset drops the conversation so the next Open starts a fresh transcript.
func (s *Service) Reset(_ context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[key]; !ok {
		return false
	}
	delete(s.conversations, key)
	return true
}

// Len returns the number of live conversations.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
