package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/maheshrc27/xflow/internal/models"
	"github.com/maheshrc27/xflow/internal/repository"
	"github.com/maheshrc27/xflow/internal/schedule"
	"github.com/maheshrc27/xflow/internal/transfer"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrDuplicateContent = errors.New("duplicate content detected")
	ErrPolicyViolation  = errors.New("content policy violation")
	ErrPostPublished    = errors.New("cannot modify published posts")
	ErrContentTooLong   = fmt.Errorf("content exceeds %d characters", models.MaxContentLength)
)

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error)
	CreateThread(ctx context.Context, userID int64, tc *transfer.ThreadCreation) ([]*models.Post, error)
	List(ctx context.Context, userID int64, status string) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Update(ctx context.Context, userID int64, pu *transfer.PostUpdate) (*models.Post, error)
	CancelSchedule(ctx context.Context, userID, postID int64) error
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	pr repository.PostRepository
	ur repository.UserRepository
	sr repository.SuggestionRepository
}

func NewPostService(pr repository.PostRepository, ur repository.UserRepository, sr repository.SuggestionRepository) PostService {
	return &postService{pr: pr, ur: ur, sr: sr}
}

func validateContent(content string) error {
	if content == "" {
		return errors.New("content cannot be empty")
	}
	if len([]rune(content)) > models.MaxContentLength {
		return ErrContentTooLong
	}
	// Placeholder moderation; a real filter lives upstream.
	if strings.Contains(content, "badword") {
		return ErrPolicyViolation
	}
	return nil
}

// normalizeScheduledFor resolves a raw scheduled-time string against the
// user's stored offset. Empty input means no schedule.
func (s *postService) normalizeScheduledFor(ctx context.Context, userID int64, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	parsed, zoned, err := schedule.ParseInstant(raw)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	var offset *int
	if !zoned {
		offset, err = s.ur.GetTimeZoneOffset(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	normalized := schedule.Normalize(parsed, zoned, time.Now().UTC(), offset)
	return &normalized, nil
}

func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil {
		return nil, errors.New("post creation data is nil")
	}
	if err := validateContent(pc.Content); err != nil {
		return nil, err
	}

	exists, err := s.pr.ExistsByContent(ctx, userID, pc.Content)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateContent
	}

	scheduledFor, err := s.normalizeScheduledFor(ctx, userID, pc.ScheduledFor)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:       userID,
		Content:      pc.Content,
		ScheduledFor: scheduledFor,
		Status:       models.PostStatusDraft,
	}
	if scheduledFor != nil {
		post.Status = models.PostStatusScheduled
	}

	id, err := s.pr.Create(ctx, nil, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	post.ID = id
	return post, nil
}

// CreateThread creates an ordered group of posts sharing one scheduled
// instant. Index 0 is the head; only it is ever claimed by the sweep.
func (s *postService) CreateThread(ctx context.Context, userID int64, tc *transfer.ThreadCreation) ([]*models.Post, error) {
	if tc == nil || len(tc.Contents) == 0 {
		return nil, errors.New("thread contents cannot be empty")
	}
	for _, content := range tc.Contents {
		if err := validateContent(content); err != nil {
			return nil, err
		}
	}

	scheduledFor, err := s.normalizeScheduledFor(ctx, userID, tc.ScheduledFor)
	if err != nil {
		return nil, err
	}

	threadID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	status := models.PostStatusDraft
	if scheduledFor != nil {
		status = models.PostStatusScheduled
	}

	posts := make([]*models.Post, 0, len(tc.Contents))
	for idx, content := range tc.Contents {
		post := &models.Post{
			UserID:       userID,
			Content:      content,
			ThreadID:     &threadID,
			ThreadIndex:  idx,
			ScheduledFor: scheduledFor,
			Status:       status,
		}
		id, err := s.pr.Create(ctx, nil, post)
		if err != nil {
			return nil, fmt.Errorf("error creating thread member %d: %w", idx, err)
		}
		post.ID = id
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *postService) List(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	return s.pr.GetByUserID(ctx, userID, status)
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != userID {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// Update edits content and optionally reschedules. Rescheduling clears
// failure state, the stale external id and old engagement counters so the
// post is a clean retry candidate.
func (s *postService) Update(ctx context.Context, userID int64, pu *transfer.PostUpdate) (*models.Post, error) {
	post, err := s.PostInfo(ctx, pu.ID, userID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPublished {
		return nil, ErrPostPublished
	}
	if err := validateContent(pu.Content); err != nil {
		return nil, err
	}

	post.Content = pu.Content
	if pu.ScheduledFor != "" {
		scheduledFor, err := s.normalizeScheduledFor(ctx, userID, pu.ScheduledFor)
		if err != nil {
			return nil, err
		}
		post.ScheduledFor = scheduledFor
		post.Status = models.PostStatusScheduled
		post.FailureCode = nil
		post.FailureReason = nil
		post.XPostID = nil
		clearMetrics(post)
	}

	if err := s.pr.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) CancelSchedule(ctx context.Context, userID, postID int64) error {
	post, err := s.PostInfo(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.Status == models.PostStatusPublished {
		return ErrPostPublished
	}

	post.ScheduledFor = nil
	post.Status = models.PostStatusDraft
	post.FailureCode = nil
	post.FailureReason = nil
	clearMetrics(post)

	return s.pr.Update(ctx, post)
}

// Remove deletes a post, detaching any suggestion that pointed at it.
func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrPostNotFound
	}

	if err := s.sr.UnlinkByPostID(ctx, postID); err != nil {
		return err
	}
	return s.pr.Remove(ctx, postID)
}

func clearMetrics(post *models.Post) {
	post.LikeCount = 0
	post.RetweetCount = 0
	post.ReplyCount = 0
	post.ImpressionCount = 0
	post.LastMetricsUpdate = nil
}
