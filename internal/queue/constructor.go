package queue

import (
	"github.com/maheshrc27/xflow/internal/service"
)

// Worker consumes notification tasks and fans them out through the push
// sender. Delivery stays best-effort end to end: a failed task is logged
// and dropped rather than retried into a user's notification history.
type Worker struct {
	push service.PushSender
}

func NewWorker(push service.PushSender) *Worker {
	return &Worker{push: push}
}

const (
	TaskTypeNotifyPublished = "notify:published"
	TaskTypeNotifyFailed    = "notify:failed"
)

type NotifyPayload struct {
	UserID      int64  `json:"user_id"`
	PostID      int64  `json:"post_id"`
	Preview     string `json:"preview"`
	FailureCode string `json:"failure_code,omitempty"`
}
