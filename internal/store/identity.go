package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"obrolin/server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = "id, full_name, number, email, password_hash, profile_pic, created_at, updated_at"

// Identity persists user records and the symmetric contact relation
type Identity struct {
	pool *pgxpool.Pool
}

func NewIdentity(pool *pgxpool.Pool) *Identity {
	return &Identity{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.FullName, &u.Number, &u.Email, &u.Password,
		&u.ProfilePic, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user and returns the stored record
func (s *Identity) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, full_name, number, email, password_hash, profile_pic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+userColumns,
		uuid.NewString(), u.FullName, u.Number, u.Email, u.Password, u.ProfilePic, time.Now())
	return scanUser(row)
}

// GetByID returns a user by id, or nil when not found
func (s *Identity) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

// GetByEmail returns a user by email, or nil when not found
func (s *Identity) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

// ListExcluding returns every user whose id is not in the given set
func (s *Identity) ListExcluding(ctx context.Context, ids []string) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE NOT (id::text = ANY($1))
		ORDER BY full_name
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Number, &u.Email, &u.Password,
			&u.ProfilePic, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// AddContacts records the symmetric contact relation between two users.
// Idempotent: re-applying an existing relation is a no-op, so a retried
// accept never grows the contact sets twice.
func (s *Identity) AddContacts(ctx context.Context, a, b string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contacts (user_id, contact_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT (user_id, contact_id) DO NOTHING
	`, a, b)
	if err != nil {
		return fmt.Errorf("add contacts: %w", err)
	}
	return nil
}

// AreContacts reports whether b is in a's contact set
func (s *Identity) AreContacts(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM contacts WHERE user_id = $1 AND contact_id = $2)",
		a, b).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check contacts: %w", err)
	}
	return exists, nil
}

// ListContactIDs returns the ids of all of a user's contacts
func (s *Identity) ListContactIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT contact_id FROM contacts WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
