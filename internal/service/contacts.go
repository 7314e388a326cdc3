package service

import (
	"context"

	"obrolin/server/internal/models"
)

// IdentityStore is the durable user/contact storage the services need
type IdentityStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListExcluding(ctx context.Context, ids []string) ([]models.User, error)
	AddContacts(ctx context.Context, a, b string) error
	AreContacts(ctx context.Context, a, b string) (bool, error)
	ListContactIDs(ctx context.Context, userID string) ([]string, error)
}

// RequestLedger is the durable contact-request storage. Create returns
// (nil, nil) when an active request for the same direction already
// exists, which the storage layer enforces with a uniqueness constraint.
type RequestLedger interface {
	Create(ctx context.Context, from, to string) (*models.ContactRequest, error)
	ActiveExists(ctx context.Context, from, to string) (bool, error)
	ActiveCounterpartIDs(ctx context.Context, userID string) ([]string, error)
	ListSent(ctx context.Context, userID string) ([]models.RequestWithUser, error)
	ListReceived(ctx context.Context, userID string) ([]models.RequestWithUser, error)
	GetPending(ctx context.Context, id, to string) (*models.ContactRequest, error)
	Transition(ctx context.Context, id, to string, status models.RequestStatus) (bool, error)
}

// ChatEnsurer materializes the chat for a pair of users. Implemented
// by the messaging service.
type ChatEnsurer interface {
	EnsureChat(ctx context.Context, a, b string) (*models.Chat, error)
}

// Contacts realizes the contact-request workflow: discovery, sending,
// accepting and declining requests, and the contact-set mutation on
// acceptance.
type Contacts struct {
	identity IdentityStore
	ledger   RequestLedger
	chats    ChatEnsurer
}

func NewContacts(identity IdentityStore, ledger RequestLedger, chats ChatEnsurer) *Contacts {
	return &Contacts{identity: identity, ledger: ledger, chats: chats}
}

// ListAvailable returns every user the requester could still send a
// request to: everyone minus self, existing contacts, and users with a
// pending or accepted request in either direction. Declined requests
// do not exclude anyone.
func (s *Contacts) ListAvailable(ctx context.Context, userID string) ([]models.UserResponse, error) {
	contacts, err := s.identity.ListContactIDs(ctx, userID)
	if err != nil {
		return nil, unavailable(err)
	}
	counterparts, err := s.ledger.ActiveCounterpartIDs(ctx, userID)
	if err != nil {
		return nil, unavailable(err)
	}

	exclude := append([]string{userID}, contacts...)
	exclude = append(exclude, counterparts...)

	users, err := s.identity.ListExcluding(ctx, exclude)
	if err != nil {
		return nil, unavailable(err)
	}

	available := make([]models.UserResponse, 0, len(users))
	for i := range users {
		available = append(available, users[i].ToResponse())
	}
	return available, nil
}

// SendRequest creates a pending request from one user to another
func (s *Contacts) SendRequest(ctx context.Context, from, to string) (*models.ContactRequest, error) {
	if to == "" || from == to {
		return nil, ErrInvalidTarget
	}

	target, err := s.identity.GetByID(ctx, to)
	if err != nil {
		return nil, unavailable(err)
	}
	if target == nil {
		return nil, ErrNotFound
	}

	exists, err := s.ledger.ActiveExists(ctx, from, to)
	if err != nil {
		return nil, unavailable(err)
	}
	if exists {
		return nil, ErrDuplicateRequest
	}

	contacts, err := s.identity.AreContacts(ctx, from, to)
	if err != nil {
		return nil, unavailable(err)
	}
	if contacts {
		return nil, ErrAlreadyContacts
	}

	request, err := s.ledger.Create(ctx, from, to)
	if err != nil {
		return nil, unavailable(err)
	}
	if request == nil {
		// A concurrent send for the same direction won the insert
		return nil, ErrDuplicateRequest
	}
	return request, nil
}

// ListSent returns the user's outgoing requests, newest first
func (s *Contacts) ListSent(ctx context.Context, userID string) ([]models.RequestWithUser, error) {
	requests, err := s.ledger.ListSent(ctx, userID)
	if err != nil {
		return nil, unavailable(err)
	}
	return requests, nil
}

// ListReceived returns the user's incoming requests, newest first
func (s *Contacts) ListReceived(ctx context.Context, userID string) ([]models.RequestWithUser, error) {
	requests, err := s.ledger.ListReceived(ctx, userID)
	if err != nil {
		return nil, unavailable(err)
	}
	return requests, nil
}

// Accept accepts a pending request addressed to the user. The side
// effects run idempotent-first: chat materialization and contact
// updates can be re-applied safely, and the status transition commits
// last so a reader never observes an accepted request with incomplete
// contact sets or a missing chat. The transition carries an optimistic
// guard, so of two racing accepts exactly one succeeds.
func (s *Contacts) Accept(ctx context.Context, userID, requestID string) error {
	request, err := s.ledger.GetPending(ctx, requestID, userID)
	if err != nil {
		return unavailable(err)
	}
	if request == nil {
		return ErrNotFound
	}

	if _, err := s.chats.EnsureChat(ctx, request.FromID, request.ToID); err != nil {
		return unavailable(err)
	}
	if err := s.identity.AddContacts(ctx, request.FromID, request.ToID); err != nil {
		return unavailable(err)
	}

	ok, err := s.ledger.Transition(ctx, requestID, userID, models.RequestAccepted)
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		// A concurrent accept or decline got there first
		return ErrNotFound
	}
	return nil
}

// Decline declines a pending request addressed to the user. No other
// side effects; a declined request does not block a future one.
func (s *Contacts) Decline(ctx context.Context, userID, requestID string) error {
	ok, err := s.ledger.Transition(ctx, requestID, userID, models.RequestDeclined)
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
