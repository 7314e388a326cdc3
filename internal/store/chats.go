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

// Chats persists chats and their ordered message logs
type Chats struct {
	pool *pgxpool.Pool
}

func NewChats(pool *pgxpool.Pool) *Chats {
	return &Chats{pool: pool}
}

// EnsureChat finds or creates the chat for the unordered pair (a, b).
// The insert goes through the unique pair_key: when a concurrent caller
// wins the race our insert returns no row and we re-fetch the winner,
// so the same chat comes back regardless of argument order or timing.
func (s *Chats) EnsureChat(ctx context.Context, a, b string) (*models.Chat, error) {
	key := models.PairKey(a, b)

	var c models.Chat
	err := s.pool.QueryRow(ctx, `
		INSERT INTO chats (id, user_a, user_b, pair_key, last_activity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pair_key) DO NOTHING
		RETURNING id, user_a, user_b, last_activity
	`, uuid.NewString(), a, b, key, time.Now()).
		Scan(&c.ID, &c.UserA, &c.UserB, &c.LastActivity)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ensure chat: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT id, user_a, user_b, last_activity FROM chats WHERE pair_key = $1
	`, key).Scan(&c.ID, &c.UserA, &c.UserB, &c.LastActivity)
	if err != nil {
		return nil, fmt.Errorf("fetch chat after conflict: %w", err)
	}
	return &c, nil
}

// GetChat returns a chat by id, or nil when not found
func (s *Chats) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	var c models.Chat
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_a, user_b, last_activity FROM chats WHERE id = $1
	`, id).Scan(&c.ID, &c.UserA, &c.UserB, &c.LastActivity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return &c, nil
}

// ListFor returns every chat the user participates in, joined with the
// counterpart's profile and the latest message, most recent activity first
func (s *Chats) ListFor(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			c.id, c.last_activity,
			u.id, u.full_name, u.number, u.email, u.profile_pic, u.created_at,
			m.id, m.chat_id, m.sender_id, m.content, m.image_url, m.created_at
		FROM chats c
		INNER JOIN users u
			ON u.id = CASE WHEN c.user_a = $1 THEN c.user_b ELSE c.user_a END
		LEFT JOIN LATERAL (
			SELECT id, chat_id, sender_id, content, image_url, created_at
			FROM messages
			WHERE chat_id = c.id
			ORDER BY seq DESC
			LIMIT 1
		) m ON TRUE
		WHERE c.user_a = $1 OR c.user_b = $1
		ORDER BY c.last_activity DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []models.ChatSummary
	for rows.Next() {
		var summary models.ChatSummary
		var u models.User
		var mID, mChatID, mSenderID *string
		var mContent, mImageURL *string
		var mCreatedAt *time.Time

		if err := rows.Scan(&summary.ID, &summary.LastActivity,
			&u.ID, &u.FullName, &u.Number, &u.Email, &u.ProfilePic, &u.CreatedAt,
			&mID, &mChatID, &mSenderID, &mContent, &mImageURL, &mCreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}

		summary.Participant = u.ToResponse()
		if mID != nil {
			summary.LastMessage = &models.Message{
				ID:        *mID,
				ChatID:    *mChatID,
				SenderID:  *mSenderID,
				Content:   mContent,
				ImageURL:  mImageURL,
				CreatedAt: *mCreatedAt,
			}
		}
		chats = append(chats, summary)
	}
	return chats, rows.Err()
}

// AppendMessage appends a message to the chat's log and bumps the
// chat's last_activity to the message timestamp. The returned Seq is
// the message's position in the log.
func (s *Chats) AppendMessage(ctx context.Context, chatID, senderID string, content, imageURL *string) (*models.Message, error) {
	var m models.Message
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, content, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq, id, chat_id, sender_id, content, image_url, created_at
	`, uuid.NewString(), chatID, senderID, content, imageURL, time.Now()).
		Scan(&m.Seq, &m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.ImageURL, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		"UPDATE chats SET last_activity = $1 WHERE id = $2",
		m.CreatedAt, chatID); err != nil {
		return nil, fmt.Errorf("bump chat activity: %w", err)
	}
	return &m, nil
}

// ListMessages returns the chat's full message log in append order
func (s *Chats) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, id, chat_id, sender_id, content, image_url, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY seq
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.Seq, &m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.ImageURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
