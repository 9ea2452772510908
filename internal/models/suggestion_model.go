package models

import "time"

type ContentSuggestion struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	SuggestedText   string     `db:"suggested_text" json:"suggested_text"`
	Rationale       string     `db:"rationale" json:"rationale"`
	RiskAssessment  string     `db:"risk_assessment" json:"risk_assessment"`
	EstimatedImpact string     `db:"estimated_impact" json:"estimated_impact"`
	Status          string     `db:"status" json:"status"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	GeneratedAt     time.Time  `db:"generated_at" json:"generated_at"`
	ScheduledPostID *int64     `db:"scheduled_post_id" json:"scheduled_post_id,omitempty"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	SuggestionStatusPending  = "pending"
	SuggestionStatusAccepted = "accepted"
	SuggestionStatusRejected = "rejected"
)
