package relay

import "time"

// EventType represents different real-time event types
type EventType string

const (
	// Server -> client
	EventMessageSent EventType = "message_sent"
	EventError       EventType = "error"

	// Client -> server
	EventJoinChat  EventType = "join_chat"
	EventLeaveChat EventType = "leave_chat"
)

// Event is the frame sent to subscribed sessions
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessagePayload carries an appended message to a chat's subscribers
type MessagePayload struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	SenderID  string    `json:"senderId"`
	Content   *string   `json:"content,omitempty"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorPayload represents error event payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncomingFrame represents frames received from clients
type IncomingFrame struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}
