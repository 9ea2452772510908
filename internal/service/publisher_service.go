package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/maheshrc27/xflow/internal/models"
	"github.com/maheshrc27/xflow/internal/repository"
	"github.com/maheshrc27/xflow/internal/transfer"
)

// publishLockTTL bounds how long a claimed head stays owned by one sweep.
// Long enough for an API round trip plus a token refresh, short enough
// that a crashed worker's claims expire without intervention.
const publishLockTTL = 5 * time.Minute

// Notifier delivers best-effort user notifications. Implementations must
// never let a delivery failure surface as an error that could change a
// post's recorded outcome.
type Notifier interface {
	NotifyPublished(ctx context.Context, userID, postID int64, preview string)
	NotifyFailed(ctx context.Context, userID, postID int64, preview, failureCode string)
}

type PublisherService interface {
	RunSweep(ctx context.Context) (*transfer.PublishRunResult, error)
}

type publisherService struct {
	posts    repository.PostRepository
	tokens   TokenService
	x        XApiClient
	notifier Notifier
	now      func() time.Time
}

func NewPublisherService(posts repository.PostRepository, tokens TokenService, x XApiClient, notifier Notifier) PublisherService {
	return &publisherService{
		posts:    posts,
		tokens:   tokens,
		x:        x,
		notifier: notifier,
		now:      time.Now,
	}
}

// RunSweep processes every due head exactly once across all workers:
// claim, load the group, secure credentials, publish in thread order.
// Post mutations accumulate in memory and are persisted in one batch at
// the end; a crash before that point leaves only expiring claim locks
// behind.
func (s *publisherService) RunSweep(ctx context.Context) (*transfer.PublishRunResult, error) {
	now := s.now().UTC()
	lockUntil := now.Add(publishLockTTL)
	result := &transfer.PublishRunResult{StartedAt: now}

	heads, err := s.posts.ListDueHeads(ctx, now)
	if err != nil {
		return nil, err
	}
	result.HeadsDue = len(heads)

	var touched []*models.Post

	for _, head := range heads {
		lockID, err := gonanoid.New()
		if err != nil {
			slog.Error(err.Error())
			continue
		}

		claimed, err := s.posts.TryClaimHead(ctx, head.ID, now, lockUntil, lockID)
		if err != nil {
			slog.Error("claim failed", "post_id", head.ID, "error", err)
			continue
		}
		if !claimed {
			result.SkippedLocked++
			continue
		}
		result.HeadsClaimed++

		group, err := s.loadGroup(ctx, head, now)
		if err != nil {
			slog.Error("thread load failed", "post_id", head.ID, "error", err)
			continue
		}
		if len(group) == 0 {
			// Concurrent edit or cancel emptied the thread between claim
			// and load; the claim expires on its own.
			continue
		}

		accessToken, err := s.tokens.EnsureFreshAccessToken(ctx, group[0].UserID, now)
		if err != nil {
			code, reason := MapFailure(err)
			for _, post := range group {
				markFailed(post, code, reason)
			}
			touched = append(touched, group...)
			continue
		}

		s.publishGroup(ctx, group, accessToken, result)
		touched = append(touched, group...)
	}

	if len(touched) > 0 {
		if err := s.posts.SaveBatch(ctx, touched); err != nil {
			slog.Error("sweep batch save failed", "error", err)
			return result, err
		}
	}

	result.FinishedAt = s.now().UTC()

	slog.Info("publish sweep finished",
		"heads_due", result.HeadsDue,
		"heads_claimed", result.HeadsClaimed,
		"posts_attempted", result.PostsAttempted,
		"published", result.PostsPublished,
		"failed", result.PostsFailed,
		"skipped_locked", result.SkippedLocked,
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds())

	return result, nil
}

// loadGroup expands a claimed head into its ordered publish group,
// re-checking that thread members are still scheduled and due.
func (s *publisherService) loadGroup(ctx context.Context, head *models.Post, now time.Time) ([]*models.Post, error) {
	if head.ThreadID == nil {
		return []*models.Post{head}, nil
	}
	return s.posts.ListThreadDue(ctx, *head.ThreadID, now)
}

// publishGroup walks the group strictly in thread order, chaining each
// reply to the previous tweet id. The first failure marks every remaining
// member THREAD_ABORTED; already-published members stay published.
func (s *publisherService) publishGroup(ctx context.Context, group []*models.Post, accessToken string, result *transfer.PublishRunResult) {
	var previousXID *string

	for i, post := range group {
		result.PostsAttempted++

		xID, err := s.x.PostTweet(ctx, accessToken, post.Content, previousXID)
		if err == nil {
			post.Status = models.PostStatusPublished
			post.XPostID = &xID
			post.FailureCode = nil
			post.FailureReason = nil
			clearLock(post)
			previousXID = &xID
			result.PostsPublished++

			slog.Info("post published", "post_id", post.ID, "x_post_id", xID)
			s.notifier.NotifyPublished(ctx, post.UserID, post.ID, preview(post.Content))
			continue
		}

		slog.Error("post publish failed", "post_id", post.ID, "error", err)
		code, reason := MapFailure(err)
		markFailed(post, code, reason)
		result.PostsFailed++
		s.notifier.NotifyFailed(ctx, post.UserID, post.ID, preview(post.Content), code)

		for _, rest := range group[i+1:] {
			markFailed(rest, models.FailureThreadAborted, "Thread aborted: previous tweet failed")
			result.PostsFailed++
		}
		return
	}
}

// MapFailure classifies a publish or credential error into a recorded
// failure code. Explicit classifications win; everything else is UNKNOWN.
func MapFailure(err error) (string, string) {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Code, pe.Reason
	}

	var xe *XAPIError
	if errors.As(err, &xe) {
		switch xe.StatusCode {
		case http.StatusTooManyRequests:
			return models.FailureRateLimit, "Rate limit exceeded"
		case http.StatusUnauthorized:
			return models.FailureUnauthorized, "Unauthorized"
		case http.StatusForbidden:
			return models.FailureForbidden, "Forbidden"
		default:
			return models.FailureXAPIError, "X API error"
		}
	}

	return models.FailureUnknown, err.Error()
}

func markFailed(post *models.Post, code, reason string) {
	post.Status = models.PostStatusFailed
	post.FailureCode = &code
	post.FailureReason = &reason
	clearLock(post)
}

func clearLock(post *models.Post) {
	post.PublishLockID = nil
	post.PublishLockedUntil = nil
}

func preview(content string) string {
	if len(content) <= 140 {
		return content
	}
	return content[:140]
}
