package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxIface is the subset of pgxpool.Pool the store needs; pgxmock satisfies
// it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MessageRecord is one audited inbound or outbound message.
type MessageRecord struct {
	ID        uuid.UUID
	UserID    string
	Direction string // "inbound" or "outbound"
	Body      string
	Status    string
	CreatedAt time.Time
}

// Store persists the message audit log in Postgres. It is optional: the relay
// runs without it when no DATABASE_URL is configured.
type Store struct {
	pool PgxIface
}

func NewStore(pool PgxIface) *Store {
	if pool == nil {
		panic("messaging: pgx pool cannot be nil")
	}
	return &Store{pool: pool}
}

// EnsureSchema creates the messages table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			body TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("messaging: ensure schema: %w", err)
	}
	return nil
}

// InsertMessage stores one message row and returns its id.
func (s *Store) InsertMessage(ctx context.Context, rec MessageRecord) (uuid.UUID, error) {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (user_id, direction, body, status, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		rec.UserID, rec.Direction, rec.Body, rec.Status, createdAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("messaging: insert message: %w", err)
	}
	return id, nil
}

// ListRecent returns up to limit most recent messages for a user, newest
// first.
func (s *Store) ListRecent(ctx context.Context, userID string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, direction, body, status, created_at
		 FROM messages WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("messaging: list messages: %w", err)
	}
	defer rows.Close()

	var records []MessageRecord
	for rows.Next() {
		var rec MessageRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Direction, &rec.Body, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("messaging: scan message: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("messaging: iterate messages: %w", err)
	}
	return records, nil
}

// RecordInbound implements the pipeline's audit hook for received messages.
func (s *Store) RecordInbound(ctx context.Context, userID, body string) error {
	_, err := s.InsertMessage(ctx, MessageRecord{
		UserID:    userID,
		Direction: "inbound",
		Body:      body,
		Status:    "received",
	})
	return err
}

// RecordOutbound implements the pipeline's audit hook for sent replies.
func (s *Store) RecordOutbound(ctx context.Context, userID, body, status string) error {
	_, err := s.InsertMessage(ctx, MessageRecord{
		UserID:    userID,
		Direction: "outbound",
		Body:      body,
		Status:    status,
	})
	return err
}
