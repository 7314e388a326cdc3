package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"obrolin/server/internal/models"
	"obrolin/server/internal/relay"
)

// ChatStore is the durable chat/message storage
type ChatStore interface {
	EnsureChat(ctx context.Context, a, b string) (*models.Chat, error)
	GetChat(ctx context.Context, id string) (*models.Chat, error)
	ListFor(ctx context.Context, userID string) ([]models.ChatSummary, error)
	AppendMessage(ctx context.Context, chatID, senderID string, content, imageURL *string) (*models.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)
}

// RelayHub fans an event out to every session subscribed to a chat
type RelayHub interface {
	Broadcast(chatID string, event relay.Event)
}

// Messaging realizes send/receive over persistent chats with real-time
// fan-out. Persistence and fan-out are two steps of one logical send;
// a fan-out failure never rolls persistence back, live peers that miss
// an event recover it from the message log.
type Messaging struct {
	identity IdentityStore
	chats    ChatStore
	hub      RelayHub

	mu        sync.Mutex
	chatLocks map[string]*sync.Mutex
}

func NewMessaging(identity IdentityStore, chats ChatStore, hub RelayHub) *Messaging {
	return &Messaging{
		identity:  identity,
		chats:     chats,
		hub:       hub,
		chatLocks: make(map[string]*sync.Mutex),
	}
}

// chatLock returns the lock serializing append+broadcast for one chat.
// Holding it across both steps keeps fan-out order identical to log
// order; without it a concurrent send could persist and broadcast in
// between, inverting the two events on the wire.
func (s *Messaging) chatLock(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.chatLocks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.chatLocks[chatID] = l
	}
	return l
}

// EnsureChat finds or creates the single chat for the unordered pair.
// Safe under concurrent calls: the store enforces pair uniqueness, a
// losing insert just returns the winner.
func (s *Messaging) EnsureChat(ctx context.Context, a, b string) (*models.Chat, error) {
	return s.chats.EnsureChat(ctx, a, b)
}

// ListChats returns the user's chats with counterpart profile and last
// message, most recent activity first
func (s *Messaging) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	chats, err := s.chats.ListFor(ctx, userID)
	if err != nil {
		return nil, unavailable(err)
	}
	return chats, nil
}

// GetMessages returns the chat's full message log in append order.
// Only participants may read it.
func (s *Messaging) GetMessages(ctx context.Context, userID, chatID string) ([]models.Message, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, unavailable(err)
	}
	if chat == nil || !chat.HasParticipant(userID) {
		return nil, ErrAccessDenied
	}

	messages, err := s.chats.ListMessages(ctx, chatID)
	if err != nil {
		return nil, unavailable(err)
	}
	return messages, nil
}

// SendText appends a text message to the pair's chat, creating the
// chat first if none exists yet, and fans the message out to the
// chat's live sessions. Returns the chat id.
func (s *Messaging) SendText(ctx context.Context, userID, counterpartID, content string) (string, error) {
	if counterpartID == userID {
		return "", ErrSelfMessage
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	contacts, err := s.identity.AreContacts(ctx, userID, counterpartID)
	if err != nil {
		return "", unavailable(err)
	}
	if !contacts {
		return "", ErrNotContacts
	}

	chat, err := s.chats.EnsureChat(ctx, userID, counterpartID)
	if err != nil {
		return "", unavailable(err)
	}

	lock := s.chatLock(chat.ID)
	lock.Lock()
	defer lock.Unlock()

	message, err := s.chats.AppendMessage(ctx, chat.ID, userID, &content, nil)
	if err != nil {
		return "", unavailable(err)
	}

	s.broadcast(message)
	return chat.ID, nil
}

// CanPost reports whether the user may append to the chat. Callers
// with expensive side work, like an image upload, check this first so
// a denied send does not leave anything behind.
func (s *Messaging) CanPost(ctx context.Context, userID, chatID string) error {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return unavailable(err)
	}
	if chat == nil || !chat.HasParticipant(userID) {
		return ErrAccessDenied
	}
	return nil
}

// SendImage appends an image message to a chat the user participates
// in and fans it out. The image itself lives in the blob store; only
// its URL is persisted and relayed.
func (s *Messaging) SendImage(ctx context.Context, userID, chatID, imageURL string) (*models.Message, error) {
	if imageURL == "" {
		return nil, ErrNoImage
	}

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, unavailable(err)
	}
	if chat == nil || !chat.HasParticipant(userID) {
		return nil, ErrAccessDenied
	}

	lock := s.chatLock(chat.ID)
	lock.Lock()
	defer lock.Unlock()

	message, err := s.chats.AppendMessage(ctx, chat.ID, userID, nil, &imageURL)
	if err != nil {
		return nil, unavailable(err)
	}

	s.broadcast(message)
	return message, nil
}

func (s *Messaging) broadcast(m *models.Message) {
	s.hub.Broadcast(m.ChatID, relay.Event{
		Type: relay.EventMessageSent,
		Payload: relay.MessagePayload{
			ID:        m.ID,
			ChatID:    m.ChatID,
			SenderID:  m.SenderID,
			Content:   m.Content,
			ImageURL:  m.ImageURL,
			CreatedAt: m.CreatedAt,
		},
		Timestamp: time.Now(),
	})
}
