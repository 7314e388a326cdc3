package relay

import (
	"encoding/json"
	"log"
	"sync"
)

// RoomHub relays events to live sessions. It is pure fan-out: it keeps
// no durable state and holds only the session<->room relation, so a
// reconnecting session recovers history from the chat store, not from
// here.
type RoomHub struct {
	// Register requests from sessions
	Register chan *Session

	// Unregister requests from sessions
	Unregister chan *Session

	mu       sync.RWMutex
	rooms    map[string]map[*Session]bool // chat id -> subscribed sessions
	sessions map[*Session]map[string]bool // session -> joined chat ids
}

// NewRoomHub creates a new relay hub
func NewRoomHub() *RoomHub {
	return &RoomHub{
		Register:   make(chan *Session),
		Unregister: make(chan *Session),
		rooms:      make(map[string]map[*Session]bool),
		sessions:   make(map[*Session]map[string]bool),
	}
}

// Run starts the hub's main loop
func (h *RoomHub) Run() {
	for {
		select {
		case session := <-h.Register:
			h.registerSession(session)
		case session := <-h.Unregister:
			h.unregisterSession(session)
		}
	}
}

func (h *RoomHub) registerSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s] = make(map[string]bool)
	log.Printf("Session connected: user %s", s.UserID)
}

func (h *RoomHub) unregisterSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.sessions[s]
	if !ok {
		return
	}

	for chatID := range joined {
		delete(h.rooms[chatID], s)
		if len(h.rooms[chatID]) == 0 {
			delete(h.rooms, chatID)
		}
	}
	delete(h.sessions, s)
	close(s.Send)

	log.Printf("Session disconnected: user %s", s.UserID)
}

// Join subscribes the session to a chat's room. Joining an already
// joined room is a no-op.
func (h *RoomHub) Join(s *Session, chatID string) {
	if chatID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.sessions[s]
	if !ok {
		// Session already unregistered
		return
	}
	joined[chatID] = true

	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*Session]bool)
	}
	h.rooms[chatID][s] = true
}

// Leave removes the session from a chat's room. Leaving a room the
// session never joined is a no-op.
func (h *RoomHub) Leave(s *Session, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if joined, ok := h.sessions[s]; ok {
		delete(joined, chatID)
	}
	if room, ok := h.rooms[chatID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// Broadcast delivers the event to every session currently joined to
// the chat's room, the sender's own sessions included. Fire-and-forget:
// a session with a full send buffer just misses the event and recovers
// on the next history fetch.
func (h *RoomHub) Broadcast(chatID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for session := range h.rooms[chatID] {
		select {
		case session.Send <- data:
		default:
			log.Printf("Dropped event for user %s: send buffer full", session.UserID)
		}
	}
}

// RoomSize returns how many sessions are joined to a chat's room
func (h *RoomHub) RoomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[chatID])
}

// SessionCount returns the number of currently connected sessions
func (h *RoomHub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.sessions)
}
