// Package notifications queues and dispatches push notifications for
// fixture and result events. Rows are queued inside the request that
// caused them and delivered by a background worker, so a slow push
// provider never blocks an admin action.
package notifications

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

type Row struct {
	ID         int
	PlayerID   *int // nil broadcasts to every registered device
	Title      string
	Message    string
	EntityType string
	EntityID   int
	Status     Status
	CreatedAt  time.Time
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Queue inserts a notification row in queued state.
func (s *Store) Queue(ctx context.Context, playerID *int, title, message, entityType string, entityID int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (player_id, title, message, entity_type, entity_id, status)
		VALUES ($1, $2, $3, $4, $5, 'queued')`,
		playerID, title, message, entityType, entityID)
	if err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	return nil
}

// ClaimDue moves up to limit queued rows to sent-in-progress and returns
// them. The UPDATE ... RETURNING keeps two workers from claiming the same
// row.
func (s *Store) ClaimDue(ctx context.Context, limit int) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE notifications
		SET status = 'sending'
		WHERE id IN (
			SELECT id FROM notifications
			WHERE status = 'queued'
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, player_id, title, message, entity_type, entity_id, created_at`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("claim notifications: %w", err)
	}
	defer rows.Close()

	claimed := make([]Row, 0)
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.Title, &r.Message, &r.EntityType, &r.EntityID, &r.CreatedAt); err != nil {
			return nil, err
		}
		claimed = append(claimed, r)
	}
	return claimed, rows.Err()
}

func (s *Store) MarkSent(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET status = 'sent' WHERE id = $1`, id)
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id int, reason string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET status = 'failed', failure_reason = $2 WHERE id = $1`, id, reason)
	return err
}
