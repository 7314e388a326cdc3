package models

import "time"

// RequestStatus is the lifecycle state of a contact request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// Active reports whether the request still blocks a new one
// for the same direction. Declined requests do not.
func (s RequestStatus) Active() bool {
	return s == RequestPending || s == RequestAccepted
}

// ContactRequest represents a pending/accepted/declined contact request
type ContactRequest struct {
	ID        string        `json:"id" db:"id"`
	FromID    string        `json:"fromId" db:"from_id"`
	ToID      string        `json:"toId" db:"to_id"`
	Status    RequestStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}

// RequestWithUser is a request joined with the counterpart's profile,
// as shown in the sent/received request lists
type RequestWithUser struct {
	ID        string        `json:"id"`
	User      UserResponse  `json:"user"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}
