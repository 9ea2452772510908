package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PublishRunResult summarizes one publish sweep. The jobs package keeps
// the most recent one for operational inspection.
type PublishRunResult struct {
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	HeadsDue       int       `json:"heads_due"`
	HeadsClaimed   int       `json:"heads_claimed"`
	PostsAttempted int       `json:"posts_attempted"`
	PostsPublished int       `json:"posts_published"`
	PostsFailed    int       `json:"posts_failed"`
	SkippedLocked  int       `json:"skipped_locked"`
}

// XAuthResult is the token endpoint response, decoded. ExpiresIn is
// seconds; RefreshToken may be empty when X does not rotate it.
type XAuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
