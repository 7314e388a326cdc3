package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"obrolin/server/internal/models"
	"obrolin/server/internal/relay"
)

// In-memory stores for service tests. They mirror the storage-layer
// guarantees the pgx implementations get from Postgres: pair uniqueness
// on chats and atomic status transitions on requests.

type memIdentity struct {
	mu       sync.Mutex
	users    map[string]*models.User
	contacts map[string]map[string]bool
}

func newMemIdentity(ids ...string) *memIdentity {
	m := &memIdentity{
		users:    make(map[string]*models.User),
		contacts: make(map[string]map[string]bool),
	}
	for _, id := range ids {
		m.users[id] = &models.User{
			ID:       id,
			FullName: id,
			Email:    id + "@example.com",
		}
	}
	return m
}

func (m *memIdentity) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memIdentity) ListExcluding(_ context.Context, ids []string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	excluded := make(map[string]bool, len(ids))
	for _, id := range ids {
		excluded[id] = true
	}
	var users []models.User
	for id, u := range m.users {
		if !excluded[id] {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *memIdentity) AddContacts(_ context.Context, a, b string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contacts[a] == nil {
		m.contacts[a] = make(map[string]bool)
	}
	if m.contacts[b] == nil {
		m.contacts[b] = make(map[string]bool)
	}
	m.contacts[a][b] = true
	m.contacts[b][a] = true
	return nil
}

func (m *memIdentity) AreContacts(_ context.Context, a, b string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contacts[a][b], nil
}

func (m *memIdentity) ListContactIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.contacts[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memIdentity) contactCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contacts[userID])
}

type memLedger struct {
	mu       sync.Mutex
	requests []*models.ContactRequest
	seq      int
}

func newMemLedger() *memLedger {
	return &memLedger{}
}

func (m *memLedger) Create(_ context.Context, from, to string) (*models.ContactRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		// Same uniqueness guarantee the partial index gives the real store
		if r.FromID == from && r.ToID == to && r.Status.Active() {
			return nil, nil
		}
	}
	m.seq++
	r := &models.ContactRequest{
		ID:        fmt.Sprintf("req-%d", m.seq),
		FromID:    from,
		ToID:      to,
		Status:    models.RequestPending,
		CreatedAt: time.Now(),
	}
	m.requests = append(m.requests, r)
	cp := *r
	return &cp, nil
}

func (m *memLedger) ActiveExists(_ context.Context, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.FromID == from && r.ToID == to && r.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLedger) ActiveCounterpartIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, r := range m.requests {
		if !r.Status.Active() {
			continue
		}
		var other string
		switch userID {
		case r.FromID:
			other = r.ToID
		case r.ToID:
			other = r.FromID
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
	}
	return ids, nil
}

func (m *memLedger) listDirection(userID string, sent bool) []models.RequestWithUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RequestWithUser
	for i := len(m.requests) - 1; i >= 0; i-- {
		r := m.requests[i]
		var counterpart string
		if sent && r.FromID == userID {
			counterpart = r.ToID
		} else if !sent && r.ToID == userID {
			counterpart = r.FromID
		} else {
			continue
		}
		out = append(out, models.RequestWithUser{
			ID:        r.ID,
			User:      models.UserResponse{ID: counterpart, FullName: counterpart},
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}

func (m *memLedger) ListSent(_ context.Context, userID string) ([]models.RequestWithUser, error) {
	return m.listDirection(userID, true), nil
}

func (m *memLedger) ListReceived(_ context.Context, userID string) ([]models.RequestWithUser, error) {
	return m.listDirection(userID, false), nil
}

func (m *memLedger) GetPending(_ context.Context, id, to string) (*models.ContactRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id && r.ToID == to && r.Status == models.RequestPending {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memLedger) Transition(_ context.Context, id, to string, status models.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id && r.ToID == to && r.Status == models.RequestPending {
			r.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (m *memLedger) get(id string) *models.ContactRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id {
			cp := *r
			return &cp
		}
	}
	return nil
}

type memChats struct {
	mu       sync.Mutex
	byPair   map[string]*models.Chat
	messages map[string][]models.Message
	seq      int
}

func newMemChats() *memChats {
	return &memChats{
		byPair:   make(map[string]*models.Chat),
		messages: make(map[string][]models.Message),
	}
}

func (m *memChats) EnsureChat(_ context.Context, a, b string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.PairKey(a, b)
	if c, ok := m.byPair[key]; ok {
		cp := *c
		return &cp, nil
	}
	m.seq++
	c := &models.Chat{
		ID:           fmt.Sprintf("chat-%d", m.seq),
		UserA:        a,
		UserB:        b,
		LastActivity: time.Now(),
	}
	m.byPair[key] = c
	cp := *c
	return &cp, nil
}

func (m *memChats) GetChat(_ context.Context, id string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byPair {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memChats) ListFor(_ context.Context, userID string) ([]models.ChatSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatSummary
	for _, c := range m.byPair {
		if !c.HasParticipant(userID) {
			continue
		}
		other := c.OtherParticipant(userID)
		summary := models.ChatSummary{
			ID:           c.ID,
			Participant:  models.UserResponse{ID: other, FullName: other},
			LastActivity: c.LastActivity,
		}
		if msgs := m.messages[c.ID]; len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			summary.LastMessage = &last
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

func (m *memChats) AppendMessage(_ context.Context, chatID, senderID string, content, imageURL *string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	msg := models.Message{
		Seq:       int64(m.seq),
		ID:        fmt.Sprintf("msg-%d", m.seq),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		ImageURL:  imageURL,
		CreatedAt: time.Now(),
	}
	m.messages[chatID] = append(m.messages[chatID], msg)
	for _, c := range m.byPair {
		if c.ID == chatID {
			c.LastActivity = msg.CreatedAt
		}
	}
	cp := msg
	return &cp, nil
}

func (m *memChats) ListMessages(_ context.Context, chatID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Ordered by seq, like the SQL store
	out := append([]models.Message(nil), m.messages[chatID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *memChats) chatCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byPair)
}

type broadcastCall struct {
	chatID string
	event  relay.Event
}

type memHub struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func newMemHub() *memHub {
	return &memHub{}
}

func (m *memHub) Broadcast(chatID string, event relay.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, broadcastCall{chatID: chatID, event: event})
}

func (m *memHub) broadcasts() []broadcastCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]broadcastCall(nil), m.calls...)
}
