package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/xflow/internal/models"
	"github.com/maheshrc27/xflow/internal/repository"
)

type AuthService interface {
	AuthorizationURL() (string, error)
	LoginCallback(ctx context.Context, code, state string) (int64, error)
}

type authService struct {
	ur     repository.UserRepository
	x      XApiClient
	tokens TokenService
}

func NewAuthService(ur repository.UserRepository, x XApiClient, tokens TokenService) AuthService {
	return &authService{ur: ur, x: x, tokens: tokens}
}

func (s *authService) AuthorizationURL() (string, error) {
	return s.x.AuthorizationURL()
}

// LoginCallback finishes the OAuth flow: exchanges the code, looks up the
// X profile, upserts the local user and stores the encrypted token pair.
func (s *authService) LoginCallback(ctx context.Context, code, state string) (int64, error) {
	if code == "" || state == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return 0, err
	}

	auth, err := s.x.ExchangeCode(ctx, code, state)
	if err != nil {
		slog.Error(err.Error())
		return 0, err
	}

	profile, err := s.x.GetMe(ctx, auth.AccessToken)
	if err != nil {
		slog.Error(err.Error())
		return 0, err
	}

	user, exists, err := s.ur.GetByXUserID(ctx, profile.ID)
	if err != nil {
		return 0, err
	}

	var userID int64
	if !exists {
		userID, err = s.ur.Create(ctx, &models.User{
			XUserID:         profile.ID,
			Username:        profile.Username,
			Name:            profile.Name,
			ProfileImageURL: profile.ProfileImageURL,
		})
		if err != nil {
			slog.Error(err.Error())
			return 0, err
		}
	} else {
		userID = user.ID
		user.Username = profile.Username
		user.Name = profile.Name
		user.ProfileImageURL = profile.ProfileImageURL
		if err := s.ur.UpdateProfile(ctx, user); err != nil {
			slog.Error(err.Error())
		}
	}

	if err := s.tokens.StoreTokens(ctx, userID, auth); err != nil {
		return 0, err
	}
	return userID, nil
}
