package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"obrolin/server/internal/relay"

	"github.com/stretchr/testify/require"
)

func newMessagingFixture(userIDs ...string) (*Messaging, *memIdentity, *memChats, *memHub) {
	identity := newMemIdentity(userIDs...)
	chats := newMemChats()
	hub := newMemHub()
	return NewMessaging(identity, chats, hub), identity, chats, hub
}

func TestSendText(t *testing.T) {
	req := require.New(t)
	messaging, identity, chats, hub := newMessagingFixture("alice", "bob")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))

	chatID, err := messaging.SendText(ctx, "alice", "bob", "hi")
	req.NoError(err)
	req.NotEmpty(chatID)
	req.Equal(1, chats.chatCount())

	// The message is in the log for both participants
	for _, user := range []string{"alice", "bob"} {
		messages, err := messaging.GetMessages(ctx, user, chatID)
		req.NoError(err)
		req.Len(messages, 1)
		req.Equal("alice", messages[0].SenderID)
		req.NotNil(messages[0].Content)
		req.Equal("hi", *messages[0].Content)
		req.Nil(messages[0].ImageURL)
	}

	// And it was fanned out to the chat's room
	calls := hub.broadcasts()
	req.Len(calls, 1)
	req.Equal(chatID, calls[0].chatID)
	req.Equal(relay.EventMessageSent, calls[0].event.Type)
	payload, ok := calls[0].event.Payload.(relay.MessagePayload)
	req.True(ok)
	req.Equal("alice", payload.SenderID)
	req.Equal("hi", *payload.Content)
}

func TestSendText_ReusesChat(t *testing.T) {
	req := require.New(t)
	messaging, identity, chats, _ := newMessagingFixture("alice", "bob")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))

	first, err := messaging.SendText(ctx, "alice", "bob", "hi")
	req.NoError(err)
	second, err := messaging.SendText(ctx, "bob", "alice", "hello")
	req.NoError(err)

	req.Equal(first, second)
	req.Equal(1, chats.chatCount())
}

func TestSendText_EmptyContent(t *testing.T) {
	req := require.New(t)
	messaging, identity, chats, hub := newMessagingFixture("alice", "bob")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))

	for _, content := range []string{"", "   ", "\t\n"} {
		_, err := messaging.SendText(ctx, "alice", "bob", content)
		req.ErrorIs(err, ErrEmptyContent)
	}

	// Nothing was appended or relayed
	req.Equal(0, chats.chatCount())
	req.Empty(hub.broadcasts())
}

func TestSendText_NotContacts(t *testing.T) {
	messaging, _, _, _ := newMessagingFixture("alice", "bob")

	_, err := messaging.SendText(context.Background(), "alice", "bob", "hi")
	require.ErrorIs(t, err, ErrNotContacts)
}

func TestSendText_Self(t *testing.T) {
	messaging, _, _, _ := newMessagingFixture("alice")

	_, err := messaging.SendText(context.Background(), "alice", "alice", "hi")
	require.ErrorIs(t, err, ErrSelfMessage)
}

func TestGetMessages_AccessDenied(t *testing.T) {
	req := require.New(t)
	messaging, identity, _, _ := newMessagingFixture("alice", "bob", "carol")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))
	chatID, err := messaging.SendText(ctx, "alice", "bob", "hi")
	req.NoError(err)

	_, err = messaging.GetMessages(ctx, "carol", chatID)
	req.ErrorIs(err, ErrAccessDenied)

	_, err = messaging.GetMessages(ctx, "alice", "no-such-chat")
	req.ErrorIs(err, ErrAccessDenied)
}

func TestSendImage(t *testing.T) {
	req := require.New(t)
	messaging, identity, _, hub := newMessagingFixture("alice", "bob")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))
	chatID, err := messaging.SendText(ctx, "alice", "bob", "hi")
	req.NoError(err)

	message, err := messaging.SendImage(ctx, "bob", chatID, "/uploads/pic.png")
	req.NoError(err)
	req.Nil(message.Content)
	req.NotNil(message.ImageURL)
	req.Equal("/uploads/pic.png", *message.ImageURL)

	messages, err := messaging.GetMessages(ctx, "alice", chatID)
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal(message.ID, messages[1].ID)

	calls := hub.broadcasts()
	req.Len(calls, 2)
	payload := calls[1].event.Payload.(relay.MessagePayload)
	req.Equal("/uploads/pic.png", *payload.ImageURL)
}

func TestSendImage_NoImage(t *testing.T) {
	messaging, _, _, _ := newMessagingFixture("alice")

	_, err := messaging.SendImage(context.Background(), "alice", "chat-1", "")
	require.ErrorIs(t, err, ErrNoImage)
}

func TestSendImage_AccessDenied(t *testing.T) {
	req := require.New(t)
	messaging, identity, _, _ := newMessagingFixture("alice", "bob", "carol")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))
	chatID, err := messaging.SendText(ctx, "alice", "bob", "hi")
	req.NoError(err)

	_, err = messaging.SendImage(ctx, "carol", chatID, "/uploads/pic.png")
	req.ErrorIs(err, ErrAccessDenied)
}

func TestEnsureChat_Concurrent(t *testing.T) {
	req := require.New(t)
	messaging, _, chats, _ := newMessagingFixture("alice", "bob")
	ctx := context.Background()

	const callers = 20
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "alice", "bob"
			if i%2 == 1 {
				a, b = b, a // order independence
			}
			chat, err := messaging.EnsureChat(ctx, a, b)
			if err == nil {
				ids[i] = chat.ID
			}
		}(i)
	}
	wg.Wait()

	req.Equal(1, chats.chatCount())
	for i := 1; i < callers; i++ {
		req.Equal(ids[0], ids[i])
	}
}

func TestSendText_ConcurrentBroadcastOrder(t *testing.T) {
	req := require.New(t)
	messaging, identity, chats, hub := newMessagingFixture("alice", "bob")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))

	// Concurrent sends on one chat from both sides. Fan-out must come
	// out in the same order the messages landed in the log.
	const senders = 200
	errs := make(chan error, senders)
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "alice", "bob"
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := messaging.SendText(ctx, from, to, fmt.Sprintf("msg %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	chat, err := messaging.EnsureChat(ctx, "alice", "bob")
	req.NoError(err)
	log, err := chats.ListMessages(ctx, chat.ID)
	req.NoError(err)
	calls := hub.broadcasts()
	req.Len(log, senders)
	req.Len(calls, senders)

	for i := range log {
		payload, ok := calls[i].event.Payload.(relay.MessagePayload)
		req.True(ok)
		req.Equal(log[i].ID, payload.ID)
	}
}

func TestGetMessages_EqualTimestampOrder(t *testing.T) {
	req := require.New(t)
	messaging, identity, chats, _ := newMessagingFixture("alice", "bob")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))

	var chatID string
	for i := 0; i < 3; i++ {
		id, err := messaging.SendText(ctx, "alice", "bob", fmt.Sprintf("msg %d", i))
		req.NoError(err)
		chatID = id
	}

	// Collapse the timestamps to one instant. Append order must hold
	// anyway because the log is ordered by sequence, not time.
	stamp := time.Now()
	chats.mu.Lock()
	for i := range chats.messages[chatID] {
		chats.messages[chatID][i].CreatedAt = stamp
	}
	chats.mu.Unlock()

	messages, err := messaging.GetMessages(ctx, "bob", chatID)
	req.NoError(err)
	req.Len(messages, 3)
	for i, m := range messages {
		req.Equal(fmt.Sprintf("msg %d", i), *m.Content)
	}
}

func TestCanPost(t *testing.T) {
	req := require.New(t)
	messaging, identity, _, _ := newMessagingFixture("alice", "bob", "carol")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))
	chatID, err := messaging.SendText(ctx, "alice", "bob", "hi")
	req.NoError(err)

	req.NoError(messaging.CanPost(ctx, "alice", chatID))
	req.NoError(messaging.CanPost(ctx, "bob", chatID))
	req.ErrorIs(messaging.CanPost(ctx, "carol", chatID), ErrAccessDenied)
	req.ErrorIs(messaging.CanPost(ctx, "alice", "no-such-chat"), ErrAccessDenied)
}

func TestMessageOrdering(t *testing.T) {
	req := require.New(t)
	messaging, identity, _, _ := newMessagingFixture("alice", "bob")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))

	var chatID string
	for i := 0; i < 5; i++ {
		id, err := messaging.SendText(ctx, "alice", "bob", fmt.Sprintf("msg %d", i))
		req.NoError(err)
		chatID = id
	}

	messages, err := messaging.GetMessages(ctx, "bob", chatID)
	req.NoError(err)
	req.Len(messages, 5)
	for i, m := range messages {
		req.Equal(fmt.Sprintf("msg %d", i), *m.Content)
		if i > 0 {
			req.False(m.CreatedAt.Before(messages[i-1].CreatedAt))
		}
	}
}

func TestListChats(t *testing.T) {
	req := require.New(t)
	messaging, identity, _, _ := newMessagingFixture("alice", "bob", "carol")
	ctx := context.Background()

	req.NoError(identity.AddContacts(ctx, "alice", "bob"))
	req.NoError(identity.AddContacts(ctx, "alice", "carol"))

	// Chat with bob exists but is empty; carol's has a message and is
	// the more recent one
	_, err := messaging.EnsureChat(ctx, "alice", "bob")
	req.NoError(err)
	carolChat, err := messaging.SendText(ctx, "alice", "carol", "hey")
	req.NoError(err)

	chats, err := messaging.ListChats(ctx, "alice")
	req.NoError(err)
	req.Len(chats, 2)

	req.Equal(carolChat, chats[0].ID)
	req.Equal("carol", chats[0].Participant.ID)
	req.NotNil(chats[0].LastMessage)
	req.Equal("hey", *chats[0].LastMessage.Content)

	req.Equal("bob", chats[1].Participant.ID)
	req.Nil(chats[1].LastMessage)
}
