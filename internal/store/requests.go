package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"obrolin/server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Requests persists contact requests and their state machine
type Requests struct {
	pool *pgxpool.Pool
}

func NewRequests(pool *pgxpool.Pool) *Requests {
	return &Requests{pool: pool}
}

// Create inserts a new pending request for the ordered pair (from, to).
// The partial unique index on active requests is the backstop against
// two racing sends for the same direction; the loser gets (nil, nil),
// same as an up-front duplicate.
func (s *Requests) Create(ctx context.Context, from, to string) (*models.ContactRequest, error) {
	var r models.ContactRequest
	err := s.pool.QueryRow(ctx, `
		INSERT INTO contact_requests (id, from_id, to_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, from_id, to_id, status, created_at
	`, uuid.NewString(), from, to, models.RequestPending, time.Now()).
		Scan(&r.ID, &r.FromID, &r.ToID, &r.Status, &r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, nil
		}
		return nil, fmt.Errorf("create request: %w", err)
	}
	return &r, nil
}

// ActiveExists reports whether a pending or accepted request already
// exists for the exact direction (from, to)
func (s *Requests) ActiveExists(ctx context.Context, from, to string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM contact_requests
			WHERE from_id = $1 AND to_id = $2 AND status != $3
		)
	`, from, to, models.RequestDeclined).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check request: %w", err)
	}
	return exists, nil
}

// ActiveCounterpartIDs returns every user with a pending or accepted
// request in either direction with the given user
func (s *Requests) ActiveCounterpartIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_id FROM contact_requests WHERE from_id = $1 AND status != $2
		UNION
		SELECT from_id FROM contact_requests WHERE to_id = $1 AND status != $2
	`, userID, models.RequestDeclined)
	if err != nil {
		return nil, fmt.Errorf("list request counterparts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan counterpart: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Requests) listJoined(ctx context.Context, query, userID string) ([]models.RequestWithUser, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []models.RequestWithUser
	for rows.Next() {
		var r models.RequestWithUser
		var u models.User
		if err := rows.Scan(&r.ID, &r.Status, &r.CreatedAt,
			&u.ID, &u.FullName, &u.Number, &u.Email, &u.ProfilePic, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		r.User = u.ToResponse()
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// ListSent returns the user's outgoing requests joined with the
// recipient's profile, newest first
func (s *Requests) ListSent(ctx context.Context, userID string) ([]models.RequestWithUser, error) {
	return s.listJoined(ctx, `
		SELECT r.id, r.status, r.created_at,
			u.id, u.full_name, u.number, u.email, u.profile_pic, u.created_at
		FROM contact_requests r
		INNER JOIN users u ON r.to_id = u.id
		WHERE r.from_id = $1
		ORDER BY r.created_at DESC
	`, userID)
}

// ListReceived returns the user's incoming requests joined with the
// sender's profile, newest first
func (s *Requests) ListReceived(ctx context.Context, userID string) ([]models.RequestWithUser, error) {
	return s.listJoined(ctx, `
		SELECT r.id, r.status, r.created_at,
			u.id, u.full_name, u.number, u.email, u.profile_pic, u.created_at
		FROM contact_requests r
		INNER JOIN users u ON r.from_id = u.id
		WHERE r.to_id = $1
		ORDER BY r.created_at DESC
	`, userID)
}

// GetPending returns the request only if it exists, is addressed to the
// given user and is still pending. Returns nil otherwise.
func (s *Requests) GetPending(ctx context.Context, id, to string) (*models.ContactRequest, error) {
	var r models.ContactRequest
	err := s.pool.QueryRow(ctx, `
		SELECT id, from_id, to_id, status, created_at
		FROM contact_requests
		WHERE id = $1 AND to_id = $2 AND status = $3
	`, id, to, models.RequestPending).
		Scan(&r.ID, &r.FromID, &r.ToID, &r.Status, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return &r, nil
}

// Transition moves the request out of pending with an optimistic guard:
// the update only matches while the row is still pending, so of two
// racing accepts exactly one observes success.
func (s *Requests) Transition(ctx context.Context, id, to string, status models.RequestStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE contact_requests SET status = $1
		WHERE id = $2 AND to_id = $3 AND status = $4
	`, status, id, to, models.RequestPending)
	if err != nil {
		return false, fmt.Errorf("transition request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
