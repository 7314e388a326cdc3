package models

import "time"

// Chat is the unique conversation record for a pair of contacts
type Chat struct {
	ID           string    `json:"id" db:"id"`
	UserA        string    `json:"userA" db:"user_a"`
	UserB        string    `json:"userB" db:"user_b"`
	LastActivity time.Time `json:"lastActivity" db:"last_activity"`
}

// HasParticipant reports whether the user is one of the two participants
func (c *Chat) HasParticipant(userID string) bool {
	return c.UserA == userID || c.UserB == userID
}

// OtherParticipant returns the counterpart of the given participant
func (c *Chat) OtherParticipant(userID string) string {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// PairKey canonicalizes a participant pair into an order-independent
// key. The chats table carries a unique index on it, which is what
// makes concurrent chat creation safe: the losing insert hits the
// constraint and re-fetches the winner.
func PairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// Message is one entry of a chat's ordered log. Seq is assigned by
// storage on append and is the log order; created_at alone cannot
// break ties between same-instant appends.
type Message struct {
	Seq       int64     `json:"-" db:"seq"`
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chatId" db:"chat_id"`
	SenderID  string    `json:"senderId" db:"sender_id"`
	Content   *string   `json:"content,omitempty" db:"content"`
	ImageURL  *string   `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ChatSummary is a chat as shown in the chat list: the counterpart's
// profile and the last message, if any
type ChatSummary struct {
	ID           string       `json:"id"`
	Participant  UserResponse `json:"participant"`
	LastMessage  *Message     `json:"lastMessage"`
	LastActivity time.Time    `json:"lastActivity"`
}
