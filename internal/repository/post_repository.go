package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/xflow/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByUserID(ctx context.Context, userID int64, status string) ([]*models.Post, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	ExistsByContent(ctx context.Context, userID int64, content string) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	Remove(ctx context.Context, id int64) error

	// Publish sweep queries.
	ListDueHeads(ctx context.Context, now time.Time) ([]*models.Post, error)
	TryClaimHead(ctx context.Context, headID int64, now, lockUntil time.Time, lockID string) (bool, error)
	ListThreadDue(ctx context.Context, threadID string, now time.Time) ([]*models.Post, error)
	SaveBatch(ctx context.Context, posts []*models.Post) error

	// Slot finder queries.
	CountScheduledBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
	AnyScheduledBetween(ctx context.Context, userID int64, from, to time.Time) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, content, scheduled_for, status, thread_id, thread_index,
	x_post_id, failure_code, failure_reason, publish_lock_id, publish_locked_until,
	like_count, retweet_count, reply_count, impression_count, last_metrics_update,
	created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID, &post.UserID, &post.Content, &post.ScheduledFor, &post.Status,
		&post.ThreadID, &post.ThreadIndex, &post.XPostID, &post.FailureCode,
		&post.FailureReason, &post.PublishLockID, &post.PublishLockedUntil,
		&post.LikeCount, &post.RetweetCount, &post.ReplyCount, &post.ImpressionCount,
		&post.LastMetricsUpdate, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, content, scheduled_for, status, thread_id, thread_index)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.UserID, post.Content, post.ScheduledFor, post.Status, post.ThreadID, post.ThreadIndex).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.UserID, post.Content, post.ScheduledFor, post.Status, post.ThreadID, post.ThreadIndex).Scan(&id)
	}
	if err != nil {
		slog.Error(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Error(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_for DESC NULLS LAST, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := `SELECT 1 FROM posts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Error(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *postRepository) ExistsByContent(ctx context.Context, userID int64, content string) (bool, error) {
	query := `SELECT 1 FROM posts WHERE user_id = $1 AND content = $2 AND status != $3 LIMIT 1`

	var result int
	err := r.db.QueryRowContext(ctx, query, userID, content, models.PostStatusFailed).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Error(err.Error())
		return false, err
	}
	return true, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $1,
			scheduled_for = $2,
			status = $3,
			x_post_id = $4,
			failure_code = $5,
			failure_reason = $6,
			like_count = $7,
			retweet_count = $8,
			reply_count = $9,
			impression_count = $10,
			last_metrics_update = $11,
			updated_at = $12
		WHERE id = $13
	`
	_, err := r.db.ExecContext(ctx, query,
		post.Content, post.ScheduledFor, post.Status, post.XPostID,
		post.FailureCode, post.FailureReason,
		post.LikeCount, post.RetweetCount, post.ReplyCount, post.ImpressionCount,
		post.LastMetricsUpdate, time.Now().UTC(), post.ID)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

// ListDueHeads returns scheduled posts that are due and claimable as a
// unit: standalone posts and thread heads only. Non-head members are
// never selected here; they ride along via ListThreadDue.
func (r *postRepository) ListDueHeads(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1
		  AND scheduled_for IS NOT NULL
		  AND scheduled_for <= $2
		  AND (thread_id IS NULL OR thread_index = 0)
		ORDER BY scheduled_for, id`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// TryClaimHead atomically stamps the claim fields on a due, unlocked head.
// The WHERE clause is the whole cross-process mutual exclusion story:
// the update matches at most one row, and only if no live lock exists.
func (r *postRepository) TryClaimHead(ctx context.Context, headID int64, now, lockUntil time.Time, lockID string) (bool, error) {
	query := `
		UPDATE posts
		SET publish_lock_id = $1, publish_locked_until = $2
		WHERE id = $3
		  AND status = $4
		  AND scheduled_for IS NOT NULL
		  AND scheduled_for <= $5
		  AND (publish_locked_until IS NULL OR publish_locked_until < $5)
	`
	res, err := r.db.ExecContext(ctx, query, lockID, lockUntil, headID, models.PostStatusScheduled, now)
	if err != nil {
		slog.Error(err.Error())
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		slog.Error(err.Error())
		return false, err
	}
	return rows == 1, nil
}

// ListThreadDue re-queries the members of a claimed thread that are still
// scheduled and due. A concurrent edit or cancel between claim and load
// shrinks the group instead of publishing stale members.
func (r *postRepository) ListThreadDue(ctx context.Context, threadID string, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE thread_id = $1
		  AND status = $2
		  AND scheduled_for IS NOT NULL
		  AND scheduled_for <= $3
		ORDER BY thread_index, created_at`

	rows, err := r.db.QueryContext(ctx, query, threadID, models.PostStatusScheduled, now)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// SaveBatch persists the outcome of a sweep in one transaction.
func (r *postRepository) SaveBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE posts
		SET status = $1,
			x_post_id = $2,
			failure_code = $3,
			failure_reason = $4,
			publish_lock_id = $5,
			publish_locked_until = $6,
			updated_at = $7
		WHERE id = $8
	`
	now := time.Now().UTC()
	for _, post := range posts {
		_, err = tx.ExecContext(ctx, query,
			post.Status, post.XPostID, post.FailureCode, post.FailureReason,
			post.PublishLockID, post.PublishLockedUntil, now, post.ID)
		if err != nil {
			slog.Error(err.Error())
			return err
		}
	}
	return tx.Commit()
}

func (r *postRepository) CountScheduledBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM posts
		WHERE user_id = $1 AND status = $2
		  AND scheduled_for >= $3 AND scheduled_for < $4`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, models.PostStatusScheduled, from, to).Scan(&count)
	if err != nil {
		slog.Error(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) AnyScheduledBetween(ctx context.Context, userID int64, from, to time.Time) (bool, error) {
	query := `SELECT 1 FROM posts
		WHERE user_id = $1 AND status = $2
		  AND scheduled_for >= $3 AND scheduled_for <= $4
		LIMIT 1`

	var result int
	err := r.db.QueryRowContext(ctx, query, userID, models.PostStatusScheduled, from, to).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Error(err.Error())
		return false, err
	}
	return true, nil
}
