package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/xflow/internal/models"
)

type AuthTokenRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.AuthToken, error)
	Upsert(ctx context.Context, token *models.AuthToken) error
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.AuthToken, error)
}

type authTokenRepository struct {
	db *sql.DB
}

func NewAuthTokenRepository(db *sql.DB) AuthTokenRepository {
	return &authTokenRepository{db: db}
}

func (r *authTokenRepository) GetByUserID(ctx context.Context, userID int64) (*models.AuthToken, error) {
	query := `SELECT id, user_id, encrypted_access_token, encrypted_refresh_token, expires_at, created_at, updated_at
		FROM auth_tokens WHERE user_id = $1`
	row := r.db.QueryRowContext(ctx, query, userID)

	var token models.AuthToken
	err := row.Scan(&token.ID, &token.UserID, &token.EncryptedAccessToken,
		&token.EncryptedRefreshToken, &token.ExpiresAt, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Error(err.Error())
		return nil, err
	}
	return &token, nil
}

// Upsert keeps exactly one token row per user.
func (r *authTokenRepository) Upsert(ctx context.Context, token *models.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (user_id, encrypted_access_token, encrypted_refresh_token, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET encrypted_access_token = EXCLUDED.encrypted_access_token,
			encrypted_refresh_token = EXCLUDED.encrypted_refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = $5
	`
	_, err := r.db.ExecContext(ctx, query, token.UserID, token.EncryptedAccessToken,
		token.EncryptedRefreshToken, token.ExpiresAt, time.Now().UTC())
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (r *authTokenRepository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.AuthToken, error) {
	query := `SELECT id, user_id, encrypted_access_token, encrypted_refresh_token, expires_at, created_at, updated_at
		FROM auth_tokens WHERE expires_at <= $1`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var tokens []*models.AuthToken
	for rows.Next() {
		var token models.AuthToken
		err := rows.Scan(&token.ID, &token.UserID, &token.EncryptedAccessToken,
			&token.EncryptedRefreshToken, &token.ExpiresAt, &token.CreatedAt, &token.UpdatedAt)
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		tokens = append(tokens, &token)
	}
	return tokens, rows.Err()
}
