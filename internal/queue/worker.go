package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/hibiken/asynq"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (w *Worker) HandleNotifyPublished(ctx context.Context, task *asynq.Task) error {
	var payload NotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	err := w.push.SendToUser(ctx, payload.UserID, "Tweet published", payload.Preview, map[string]string{
		"type":    "published",
		"post_id": formatID(payload.PostID),
	})
	if err != nil {
		slog.Warn("push notify (published) failed", "post_id", payload.PostID, "error", err)
	}
	return nil
}

func (w *Worker) HandleNotifyFailed(ctx context.Context, task *asynq.Task) error {
	var payload NotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	body := payload.Preview
	if payload.FailureCode != "" {
		body = payload.FailureCode + ": " + payload.Preview
	}

	err := w.push.SendToUser(ctx, payload.UserID, "Tweet failed", body, map[string]string{
		"type":    "failed",
		"post_id": formatID(payload.PostID),
	})
	if err != nil {
		slog.Warn("push notify (failed) failed", "post_id", payload.PostID, "error", err)
	}
	return nil
}
