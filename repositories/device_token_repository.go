package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/nmwangi/efootball-league/models"
)

var ErrDeviceTokenNotFound = errors.New("device token not found")

type DeviceTokenRepository interface {
	Register(ctx context.Context, token *models.DeviceToken) error
	ListTokens(ctx context.Context, playerID int) ([]string, error)
	ListAllTokens(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, token string) error
}

type postgresDeviceTokenRepository struct {
	db *sql.DB
}

func NewPostgresDeviceTokenRepository(db *sql.DB) DeviceTokenRepository {
	return &postgresDeviceTokenRepository{db: db}
}

func (r *postgresDeviceTokenRepository) Register(ctx context.Context, t *models.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (player_id, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET player_id = EXCLUDED.player_id, platform = EXCLUDED.platform
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, t.PlayerID, t.Token, t.Platform).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "device_tokens_player_id_fkey" {
			return ErrPlayerNotFound
		}
		return err
	}
	return nil
}

func (r *postgresDeviceTokenRepository) queryTokens(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *postgresDeviceTokenRepository) ListTokens(ctx context.Context, playerID int) ([]string, error) {
	return r.queryTokens(ctx, `SELECT token FROM device_tokens WHERE player_id = $1`, playerID)
}

func (r *postgresDeviceTokenRepository) ListAllTokens(ctx context.Context) ([]string, error) {
	return r.queryTokens(ctx, `SELECT token FROM device_tokens`)
}

func (r *postgresDeviceTokenRepository) Delete(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = $1`, token)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrDeviceTokenNotFound)
}
