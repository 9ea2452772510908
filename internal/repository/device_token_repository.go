package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/xflow/internal/models"
)

type DeviceTokenRepository interface {
	// ListActiveTokens returns the newest active push tokens for a user,
	// capped so a compromised account cannot fan out unbounded.
	ListActiveTokens(ctx context.Context, userID int64, limit int) ([]string, error)
	Upsert(ctx context.Context, token *models.DeviceToken) error
	Deactivate(ctx context.Context, userID int64, token string) error
}

type deviceTokenRepository struct {
	db *sql.DB
}

func NewDeviceTokenRepository(db *sql.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) ListActiveTokens(ctx context.Context, userID int64, limit int) ([]string, error) {
	query := `SELECT token FROM device_tokens
		WHERE user_id = $1 AND is_active
		ORDER BY last_seen_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *deviceTokenRepository) Upsert(ctx context.Context, token *models.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (user_id, token, platform, device_id, is_active, last_seen_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		ON CONFLICT (user_id, token) DO UPDATE
		SET platform = EXCLUDED.platform,
			device_id = EXCLUDED.device_id,
			is_active = TRUE,
			last_seen_at = EXCLUDED.last_seen_at
	`
	_, err := r.db.ExecContext(ctx, query, token.UserID, token.Token, token.Platform, token.DeviceID, time.Now().UTC())
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (r *deviceTokenRepository) Deactivate(ctx context.Context, userID int64, token string) error {
	query := `UPDATE device_tokens SET is_active = FALSE WHERE user_id = $1 AND token = $2`
	_, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}
