package job

import (
	"context"
	"log/slog"
	"sync"

	"github.com/maheshrc27/xflow/internal/service"
	"github.com/maheshrc27/xflow/internal/transfer"
)

// RunStore keeps the most recent sweep result for operational inspection.
// Each run overwrites the last; there is no history here.
type RunStore struct {
	mu   sync.RWMutex
	last *transfer.PublishRunResult
}

func NewRunStore() *RunStore {
	return &RunStore{}
}

func (s *RunStore) SetLast(result *transfer.PublishRunResult) {
	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
}

func (s *RunStore) GetLast() *transfer.PublishRunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// PublishJob is the cron entrypoint for the scheduled-publish sweep.
type PublishJob struct {
	publisher service.PublisherService
	store     *RunStore
}

func NewPublishJob(publisher service.PublisherService, store *RunStore) *PublishJob {
	return &PublishJob{publisher: publisher, store: store}
}

func (j *PublishJob) Run() {
	ctx := context.Background()

	slog.Info("starting publish sweep")
	result, err := j.publisher.RunSweep(ctx)
	if err != nil {
		slog.Error("publish sweep failed", "error", err)
	}
	if result != nil {
		j.store.SetLast(result)
	}
}
