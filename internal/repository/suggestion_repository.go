package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/xflow/internal/models"
)

type SuggestionRepository interface {
	GetByID(ctx context.Context, id, userID int64) (*models.ContentSuggestion, error)
	// List returns up to limit suggestions older than the cursor position,
	// newest first. A zero cursorAt means "from the top".
	List(ctx context.Context, userID int64, status string, cursorAt time.Time, cursorID int64, limit int) ([]*models.ContentSuggestion, error)
	MarkAccepted(ctx context.Context, tx *sql.Tx, id, postID int64) error
	MarkRejected(ctx context.Context, id int64, reason *string) error
	UnlinkByPostID(ctx context.Context, postID int64) error
}

type suggestionRepository struct {
	db *sql.DB
}

func NewSuggestionRepository(db *sql.DB) SuggestionRepository {
	return &suggestionRepository{db: db}
}

const suggestionColumns = `id, user_id, suggested_text, rationale, risk_assessment, estimated_impact,
	status, rejection_reason, generated_at, scheduled_post_id, updated_at`

func (r *suggestionRepository) GetByID(ctx context.Context, id, userID int64) (*models.ContentSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM content_suggestions WHERE id = $1 AND user_id = $2`
	row := r.db.QueryRowContext(ctx, query, id, userID)

	var s models.ContentSuggestion
	err := row.Scan(&s.ID, &s.UserID, &s.SuggestedText, &s.Rationale, &s.RiskAssessment,
		&s.EstimatedImpact, &s.Status, &s.RejectionReason, &s.GeneratedAt, &s.ScheduledPostID, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Error(err.Error())
		return nil, err
	}
	return &s, nil
}

func (r *suggestionRepository) List(ctx context.Context, userID int64, status string, cursorAt time.Time, cursorID int64, limit int) ([]*models.ContentSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM content_suggestions WHERE user_id = $1`
	args := []any{userID}

	if status != "" {
		args = append(args, status)
		query += ` AND status = $2`
	}
	if !cursorAt.IsZero() {
		n := len(args)
		args = append(args, cursorAt, cursorID)
		query += fmt.Sprintf(` AND (generated_at < $%d OR (generated_at = $%d AND id < $%d))`, n+1, n+1, n+2)
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY generated_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var suggestions []*models.ContentSuggestion
	for rows.Next() {
		var s models.ContentSuggestion
		err := rows.Scan(&s.ID, &s.UserID, &s.SuggestedText, &s.Rationale, &s.RiskAssessment,
			&s.EstimatedImpact, &s.Status, &s.RejectionReason, &s.GeneratedAt, &s.ScheduledPostID, &s.UpdatedAt)
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		suggestions = append(suggestions, &s)
	}
	return suggestions, rows.Err()
}

func (r *suggestionRepository) MarkAccepted(ctx context.Context, tx *sql.Tx, id, postID int64) error {
	query := `
		UPDATE content_suggestions
		SET status = $1, scheduled_post_id = $2, updated_at = $3
		WHERE id = $4
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, models.SuggestionStatusAccepted, postID, time.Now().UTC(), id)
	} else {
		_, err = r.db.ExecContext(ctx, query, models.SuggestionStatusAccepted, postID, time.Now().UTC(), id)
	}
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (r *suggestionRepository) MarkRejected(ctx context.Context, id int64, reason *string) error {
	query := `
		UPDATE content_suggestions
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.SuggestionStatusRejected, reason, time.Now().UTC(), id)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

// UnlinkByPostID detaches suggestions from a post about to be deleted.
// The suggestion itself keeps its accepted status.
func (r *suggestionRepository) UnlinkByPostID(ctx context.Context, postID int64) error {
	query := `UPDATE content_suggestions SET scheduled_post_id = NULL WHERE scheduled_post_id = $1`
	_, err := r.db.ExecContext(ctx, query, postID)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}
