package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/maheshrc27/xflow/internal/models"
	"github.com/maheshrc27/xflow/internal/repository"
	"github.com/maheshrc27/xflow/internal/schedule"
	"github.com/maheshrc27/xflow/internal/transfer"
)

var (
	ErrSuggestionNotFound   = errors.New("suggestion not found")
	ErrSuggestionNotPending = errors.New("suggestion is not pending")
	ErrScheduleTooSoon      = errors.New("scheduled time must be in the future")
)

const defaultPostsPerDay = 3

type SuggestionService interface {
	List(ctx context.Context, userID int64, status, cursor string, take int) (*transfer.SuggestionPage, error)
	Accept(ctx context.Context, userID int64, req *transfer.AcceptSuggestion) (*transfer.AcceptSuggestionResult, error)
	Reject(ctx context.Context, userID, suggestionID int64, reason string) error
	// ComputeAutoScheduleSlot picks the next constraint-satisfying publish
	// instant for the user.
	ComputeAutoScheduleSlot(ctx context.Context, userID int64, policy *transfer.SchedulePolicy) (time.Time, error)
}

type suggestionService struct {
	db     *sql.DB
	sr     repository.SuggestionRepository
	pr     repository.PostRepository
	ur     repository.UserRepository
	st     repository.StrategyRepository
	finder *schedule.SlotFinder
	now    func() time.Time
}

func NewSuggestionService(
	db *sql.DB,
	sr repository.SuggestionRepository,
	pr repository.PostRepository,
	ur repository.UserRepository,
	st repository.StrategyRepository,
	finder *schedule.SlotFinder) SuggestionService {
	return &suggestionService{
		db:     db,
		sr:     sr,
		pr:     pr,
		ur:     ur,
		st:     st,
		finder: finder,
		now:    time.Now,
	}
}

func (s *suggestionService) List(ctx context.Context, userID int64, status, cursor string, take int) (*transfer.SuggestionPage, error) {
	if take < 1 {
		take = 1
	}
	if take > 50 {
		take = 50
	}

	var cursorAt time.Time
	var cursorID int64
	if cursor != "" {
		cursorAt, cursorID = decodeCursor(cursor)
	}

	items, err := s.sr.List(ctx, userID, status, cursorAt, cursorID, take)
	if err != nil {
		return nil, err
	}

	page := &transfer.SuggestionPage{Items: items}
	if len(items) == take {
		last := items[len(items)-1]
		page.NextCursor = encodeCursor(last.GeneratedAt, last.ID)
	}
	return page, nil
}

func (s *suggestionService) Accept(ctx context.Context, userID int64, req *transfer.AcceptSuggestion) (*transfer.AcceptSuggestionResult, error) {
	suggestion, err := s.sr.GetByID(ctx, req.SuggestionID, userID)
	if err != nil {
		return nil, err
	}
	if suggestion == nil {
		return nil, ErrSuggestionNotFound
	}
	if suggestion.Status != models.SuggestionStatusPending {
		return nil, ErrSuggestionNotPending
	}

	now := s.now().UTC()

	var scheduledFor time.Time
	if req.Mode == transfer.AcceptModeManual {
		if req.ScheduledFor == "" {
			return nil, errors.New("scheduled_for is required for manual mode")
		}
		parsed, zoned, err := schedule.ParseInstant(req.ScheduledFor)
		if err != nil {
			return nil, err
		}
		var offset *int
		if !zoned {
			offset, err = s.ur.GetTimeZoneOffset(ctx, userID)
			if err != nil {
				return nil, err
			}
		}
		scheduledFor = schedule.Normalize(parsed, zoned, now, offset)
	} else {
		scheduledFor, err = s.ComputeAutoScheduleSlot(ctx, userID, req.Policy)
		if err != nil {
			return nil, err
		}
	}

	if !scheduledFor.After(now.Add(time.Minute)) {
		return nil, ErrScheduleTooSoon
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	post := &models.Post{
		UserID:       userID,
		Content:      suggestion.SuggestedText,
		ScheduledFor: &scheduledFor,
		Status:       models.PostStatusScheduled,
	}
	postID, err := s.pr.Create(ctx, tx, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	if err := s.sr.MarkAccepted(ctx, tx, suggestion.ID, postID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("suggestion accepted", "suggestion_id", suggestion.ID, "post_id", postID, "scheduled_for", scheduledFor)
	return &transfer.AcceptSuggestionResult{PostID: postID, ScheduledFor: scheduledFor}, nil
}

func (s *suggestionService) Reject(ctx context.Context, userID, suggestionID int64, reason string) error {
	suggestion, err := s.sr.GetByID(ctx, suggestionID, userID)
	if err != nil {
		return err
	}
	if suggestion == nil {
		return ErrSuggestionNotFound
	}
	if suggestion.Status != models.SuggestionStatusPending {
		return ErrSuggestionNotPending
	}

	var trimmed *string
	if r := strings.TrimSpace(reason); r != "" {
		trimmed = &r
	}
	return s.sr.MarkRejected(ctx, suggestionID, trimmed)
}

func (s *suggestionService) ComputeAutoScheduleSlot(ctx context.Context, userID int64, policy *transfer.SchedulePolicy) (time.Time, error) {
	offset, err := s.ur.GetTimeZoneOffset(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	offsetMinutes := 0
	if offset != nil {
		offsetMinutes = *offset
	}

	dailyCap := defaultPostsPerDay
	strategy, err := s.st.GetByUserID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if strategy != nil && strategy.PostsPerDay > 0 {
		dailyCap = strategy.PostsPerDay
	}

	var schedPolicy *schedule.Policy
	if policy != nil {
		schedPolicy = &schedule.Policy{
			ExcludeWeekends: policy.ExcludeWeekends,
			PreferredStart:  policy.PreferredStart,
			PreferredEnd:    policy.PreferredEnd,
		}
	}

	return s.finder.FindSlot(ctx, userID, offsetMinutes, dailyCap, schedPolicy, s.now().UTC())
}

func encodeCursor(generatedAt time.Time, id int64) string {
	raw := strconv.FormatInt(generatedAt.UnixNano(), 10) + "|" + strconv.FormatInt(id, 10)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// decodeCursor returns zero values for malformed cursors so a bad cursor
// degrades to a first-page read.
func decodeCursor(cursor string) (time.Time, int64) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, 0
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0
	}
	return time.Unix(0, nanos).UTC(), id
}
