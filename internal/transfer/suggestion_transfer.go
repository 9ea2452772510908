package transfer

import (
	"time"

	"github.com/maheshrc27/xflow/internal/models"
)

// SchedulePolicy is the request-scoped constraint set for auto scheduling.
// A preferred window with Start >= End is ignored (no wrap-around support).
type SchedulePolicy struct {
	ExcludeWeekends bool `json:"exclude_weekends"`
	PreferredStart  *int `json:"preferred_start_hour"`
	PreferredEnd    *int `json:"preferred_end_hour"`
}

const (
	AcceptModeAuto   = "auto"
	AcceptModeManual = "manual"
)

type AcceptSuggestion struct {
	SuggestionID int64           `json:"suggestion_id"`
	Mode         string          `json:"mode"`
	ScheduledFor string          `json:"scheduled_for"`
	Policy       *SchedulePolicy `json:"policy"`
}

type RejectSuggestion struct {
	SuggestionID int64  `json:"suggestion_id"`
	Reason       string `json:"reason"`
}

type AcceptSuggestionResult struct {
	PostID       int64     `json:"post_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

type SuggestionPage struct {
	Items      []*models.ContentSuggestion `json:"items"`
	NextCursor string                      `json:"next_cursor,omitempty"`
}
