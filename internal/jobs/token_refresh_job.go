package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/xflow/internal/repository"
	"github.com/maheshrc27/xflow/internal/service"
)

// TokenRefreshJob proactively refreshes tokens expiring soon so the
// publish sweep rarely needs its inline refresh path.
type TokenRefreshJob struct {
	at     repository.AuthTokenRepository
	tokens service.TokenService
}

func NewTokenRefreshJob(at repository.AuthTokenRepository, tokens service.TokenService) *TokenRefreshJob {
	return &TokenRefreshJob{at: at, tokens: tokens}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()
	now := time.Now().UTC()

	tokens, err := j.at.ListExpiringBefore(ctx, now.Add(30*time.Minute))
	if err != nil {
		slog.Error(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, token := range tokens {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(userID int64) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := j.tokens.EnsureFreshAccessToken(ctx, userID, now); err != nil {
				slog.Info("unable to refresh token", "user_id", userID, "error", err)
			}
		}(token.UserID)
	}

	wg.Wait()
}
