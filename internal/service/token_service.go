package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/xflow/internal/models"
	"github.com/maheshrc27/xflow/internal/repository"
	"github.com/maheshrc27/xflow/internal/transfer"
	"github.com/maheshrc27/xflow/pkg/utils"
)

// refreshMargin is how close to expiry a token may get before the sweep
// refreshes it inline.
const refreshMargin = 5 * time.Minute

// PublishError is a classified credential failure. The sweep records its
// code on every post of the affected group.
type PublishError struct {
	Code   string
	Reason string
}

func (e *PublishError) Error() string {
	return e.Code + ": " + e.Reason
}

type TokenService interface {
	// EnsureFreshAccessToken returns a usable plaintext access token for
	// the user, refreshing and persisting the stored pair when it is
	// within refreshMargin of expiry.
	EnsureFreshAccessToken(ctx context.Context, userID int64, now time.Time) (string, error)
	// StoreTokens encrypts and persists a freshly issued token pair.
	StoreTokens(ctx context.Context, userID int64, auth *transfer.XAuthResult) error
}

type tokenService struct {
	at  repository.AuthTokenRepository
	x   XApiClient
	key []byte
}

func NewTokenService(at repository.AuthTokenRepository, x XApiClient, encryptionKey string) TokenService {
	return &tokenService{at: at, x: x, key: utils.DeriveKey(encryptionKey)}
}

func (s *tokenService) EnsureFreshAccessToken(ctx context.Context, userID int64, now time.Time) (string, error) {
	token, err := s.at.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", &PublishError{Code: models.FailureTokenMissing, Reason: "No auth token found"}
	}

	accessToken, err := utils.Decrypt(token.EncryptedAccessToken, s.key)
	if err != nil {
		return "", err
	}

	if token.ExpiresAt.After(now.Add(refreshMargin)) {
		return accessToken, nil
	}

	refreshToken, err := utils.Decrypt(token.EncryptedRefreshToken, s.key)
	if err != nil || refreshToken == "" {
		return "", &PublishError{Code: models.FailureTokenRefreshMissing, Reason: "Refresh token missing"}
	}

	fresh, err := s.x.RefreshToken(ctx, refreshToken)
	if err != nil {
		slog.Error("token refresh failed", "user_id", userID, "error", err)
		return "", &PublishError{Code: models.FailureTokenRefreshFailed, Reason: "Token expired and refresh failed"}
	}

	token.EncryptedAccessToken, err = utils.Encrypt([]byte(fresh.AccessToken), s.key)
	if err != nil {
		return "", err
	}
	if fresh.RefreshToken != "" {
		token.EncryptedRefreshToken, err = utils.Encrypt([]byte(fresh.RefreshToken), s.key)
		if err != nil {
			return "", err
		}
	}
	token.ExpiresAt = now.Add(time.Duration(fresh.ExpiresIn) * time.Second)

	if err := s.at.Upsert(ctx, token); err != nil {
		return "", err
	}

	slog.Info("token refreshed", "user_id", userID)
	return fresh.AccessToken, nil
}

func (s *tokenService) StoreTokens(ctx context.Context, userID int64, auth *transfer.XAuthResult) error {
	encAccess, err := utils.Encrypt([]byte(auth.AccessToken), s.key)
	if err != nil {
		return err
	}
	encRefresh := ""
	if auth.RefreshToken != "" {
		encRefresh, err = utils.Encrypt([]byte(auth.RefreshToken), s.key)
		if err != nil {
			return err
		}
	}

	return s.at.Upsert(ctx, &models.AuthToken{
		UserID:                userID,
		EncryptedAccessToken:  encAccess,
		EncryptedRefreshToken: encRefresh,
		ExpiresAt:             time.Now().UTC().Add(time.Duration(auth.ExpiresIn) * time.Second),
	})
}
