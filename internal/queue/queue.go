package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// PushNotifier satisfies service.Notifier by enqueueing notification
// tasks. Enqueue failures are swallowed after logging; a notification
// must never change a post's recorded outcome.
type PushNotifier struct {
	client *asynq.Client
}

func NewPushNotifier(client *asynq.Client) *PushNotifier {
	return &PushNotifier{client: client}
}

func (n *PushNotifier) NotifyPublished(ctx context.Context, userID, postID int64, preview string) {
	n.enqueue(TaskTypeNotifyPublished, NotifyPayload{UserID: userID, PostID: postID, Preview: preview})
}

func (n *PushNotifier) NotifyFailed(ctx context.Context, userID, postID int64, preview, failureCode string) {
	n.enqueue(TaskTypeNotifyFailed, NotifyPayload{UserID: userID, PostID: postID, Preview: preview, FailureCode: failureCode})
}

func (n *PushNotifier) enqueue(taskType string, payload NotifyPayload) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("notify enqueue marshal failed", "error", err)
		return
	}

	task := asynq.NewTask(taskType, taskPayload)
	if _, err := n.client.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		slog.Warn("notify enqueue failed", "task", taskType, "post_id", payload.PostID, "error", err)
	}
}
