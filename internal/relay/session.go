package relay

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Conn is the subset of the websocket connection the session uses.
// Narrowed so tests can drive a session without a real socket.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Session represents one live real-time connection. A session may be
// joined to any number of chat rooms at once.
type Session struct {
	UserID string
	Conn   Conn
	Hub    *RoomHub
	Send   chan []byte
}

// NewSession creates a session for a connected user
func NewSession(userID string, conn Conn, hub *RoomHub) *Session {
	return &Session{
		UserID: userID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan []byte, 256),
	}
}

// ReadPump handles incoming frames from the client
func (s *Session) ReadPump() {
	defer func() {
		s.Hub.Unregister <- s
		s.Conn.Close()
	}()

	s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var frame IncomingFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("Failed to parse frame: %v", err)
			continue
		}

		s.handleFrame(frame)
	}
}

// WritePump handles outgoing events to the client
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Write error: %v", err)
				return
			}

		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame processes one frame received from the client
func (s *Session) handleFrame(frame IncomingFrame) {
	chatID, _ := frame.Payload["chatId"].(string)

	switch frame.Type {
	case EventJoinChat:
		s.Hub.Join(s, chatID)
	case EventLeaveChat:
		s.Hub.Leave(s, chatID)
	default:
		log.Printf("Unknown frame type: %s", frame.Type)
	}
}
