package models

import "time"

// Post is one unit of content destined for X. A post either stands alone
// (ThreadID nil) or belongs to an ordered thread; index 0 is the head and
// the only row the publisher ever claims.
type Post struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Content       string     `db:"content" json:"content"`
	ScheduledFor  *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	Status        string     `db:"status" json:"status"`
	ThreadID      *string    `db:"thread_id" json:"thread_id,omitempty"`
	ThreadIndex   int        `db:"thread_index" json:"thread_index"`
	XPostID       *string    `db:"x_post_id" json:"x_post_id,omitempty"`
	FailureCode   *string    `db:"failure_code" json:"failure_code,omitempty"`
	FailureReason *string    `db:"failure_reason" json:"failure_reason,omitempty"`

	// Claim fields; both nil when no worker owns the row.
	PublishLockID      *string    `db:"publish_lock_id" json:"-"`
	PublishLockedUntil *time.Time `db:"publish_locked_until" json:"-"`

	// Engagement counters, written by the analytics collaborator.
	LikeCount         int        `db:"like_count" json:"like_count"`
	RetweetCount      int        `db:"retweet_count" json:"retweet_count"`
	ReplyCount        int        `db:"reply_count" json:"reply_count"`
	ImpressionCount   int        `db:"impression_count" json:"impression_count"`
	LastMetricsUpdate *time.Time `db:"last_metrics_update" json:"last_metrics_update,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

// Failure codes recorded on posts by the publish sweep. Closed set; the
// mapping from errors lives in the service layer.
const (
	FailureTokenMissing        = "TOKEN_MISSING"
	FailureTokenRefreshMissing = "TOKEN_REFRESH_MISSING"
	FailureTokenRefreshFailed  = "TOKEN_REFRESH_FAILED"
	FailureRateLimit           = "RATE_LIMIT"
	FailureUnauthorized        = "UNAUTHORIZED"
	FailureForbidden           = "FORBIDDEN"
	FailureXAPIError           = "X_API_ERROR"
	FailureThreadAborted       = "THREAD_ABORTED"
	FailureUnknown             = "UNKNOWN"
)

// MaxContentLength is the X API character limit.
const MaxContentLength = 280

// IsHead reports whether the publisher may claim this row directly.
func (p *Post) IsHead() bool {
	return p.ThreadID == nil || p.ThreadIndex == 0
}
