package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/maheshrc27/xflow/internal/models"
	"github.com/maheshrc27/xflow/internal/transfer"
)

// fakePostStore is an in-memory stand-in for the post repository, covering
// only what the sweep touches.
type fakePostStore struct {
	heads     []*models.Post
	threads   map[string][]*models.Post
	denyClaim map[int64]bool
	claimed   []int64
	saved     []*models.Post
}

func (f *fakePostStore) ListDueHeads(_ context.Context, _ time.Time) ([]*models.Post, error) {
	return f.heads, nil
}

func (f *fakePostStore) TryClaimHead(_ context.Context, headID int64, _, _ time.Time, _ string) (bool, error) {
	if f.denyClaim[headID] {
		return false, nil
	}
	f.claimed = append(f.claimed, headID)
	return true, nil
}

func (f *fakePostStore) ListThreadDue(_ context.Context, threadID string, _ time.Time) ([]*models.Post, error) {
	return f.threads[threadID], nil
}

func (f *fakePostStore) SaveBatch(_ context.Context, posts []*models.Post) error {
	f.saved = append(f.saved, posts...)
	return nil
}

func (f *fakePostStore) GetByID(context.Context, int64) (*models.Post, error) { return nil, nil }
func (f *fakePostStore) Create(context.Context, *sql.Tx, *models.Post) (int64, error) {
	return 0, nil
}
func (f *fakePostStore) GetByUserID(context.Context, int64, string) ([]*models.Post, error) {
	return nil, nil
}
func (f *fakePostStore) CheckByUserID(context.Context, int64, int64) (bool, error) { return false, nil }
func (f *fakePostStore) ExistsByContent(context.Context, int64, string) (bool, error) {
	return false, nil
}
func (f *fakePostStore) Update(context.Context, *models.Post) error { return nil }
func (f *fakePostStore) Remove(context.Context, int64) error        { return nil }
func (f *fakePostStore) CountScheduledBetween(context.Context, int64, time.Time, time.Time) (int, error) {
	return 0, nil
}
func (f *fakePostStore) AnyScheduledBetween(context.Context, int64, time.Time, time.Time) (bool, error) {
	return false, nil
}

type fakeTokenService struct {
	token string
	err   error
}

func (f *fakeTokenService) EnsureFreshAccessToken(context.Context, int64, time.Time) (string, error) {
	return f.token, f.err
}

func (f *fakeTokenService) StoreTokens(context.Context, int64, *transfer.XAuthResult) error {
	return nil
}

// fakeXClient scripts PostTweet responses in call order and records the
// reply chain it was asked to build.
type fakeXClient struct {
	ids       []string
	errs      []error
	calls     int
	repliedTo []*string
}

func (f *fakeXClient) PostTweet(_ context.Context, _ string, _ string, inReplyTo *string) (string, error) {
	i := f.calls
	f.calls++
	f.repliedTo = append(f.repliedTo, inReplyTo)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.ids) {
		return f.ids[i], nil
	}
	return "", errors.New("unscripted call")
}

func (f *fakeXClient) AuthorizationURL() (string, error) { return "", nil }
func (f *fakeXClient) ExchangeCode(context.Context, string, string) (*transfer.XAuthResult, error) {
	return nil, nil
}
func (f *fakeXClient) RefreshToken(context.Context, string) (*transfer.XAuthResult, error) {
	return nil, nil
}
func (f *fakeXClient) GetMe(context.Context, string) (*XUserProfile, error) { return nil, nil }

type fakeNotifier struct {
	published []int64
	failed    []int64
	codes     []string
}

func (f *fakeNotifier) NotifyPublished(_ context.Context, _ int64, postID int64, _ string) {
	f.published = append(f.published, postID)
}

func (f *fakeNotifier) NotifyFailed(_ context.Context, _ int64, postID int64, _, code string) {
	f.failed = append(f.failed, postID)
	f.codes = append(f.codes, code)
}

func newSweep(posts *fakePostStore, tokens TokenService, x XApiClient, n Notifier, now time.Time) *publisherService {
	return &publisherService{
		posts:    posts,
		tokens:   tokens,
		x:        x,
		notifier: n,
		now:      func() time.Time { return now },
	}
}

func duePost(id, userID int64, content string, at time.Time) *models.Post {
	return &models.Post{
		ID:           id,
		UserID:       userID,
		Content:      content,
		ScheduledFor: &at,
		Status:       models.PostStatusScheduled,
	}
}

func threadPost(id, userID int64, content, threadID string, index int, at time.Time) *models.Post {
	p := duePost(id, userID, content, at)
	p.ThreadID = &threadID
	p.ThreadIndex = index
	return p
}

func TestRunSweepPublishesSinglePost(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	post := duePost(1, 7, "hello world", now.Add(-time.Minute))

	store := &fakePostStore{heads: []*models.Post{post}}
	x := &fakeXClient{ids: []string{"19001"}}
	notifier := &fakeNotifier{}

	svc := newSweep(store, &fakeTokenService{token: "access"}, x, notifier, now)
	result, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.HeadsDue != 1 || result.HeadsClaimed != 1 {
		t.Errorf("heads due=%d claimed=%d, want 1/1", result.HeadsDue, result.HeadsClaimed)
	}
	if result.PostsAttempted != 1 || result.PostsPublished != 1 || result.PostsFailed != 0 {
		t.Errorf("attempted=%d published=%d failed=%d, want 1/1/0",
			result.PostsAttempted, result.PostsPublished, result.PostsFailed)
	}

	if post.Status != models.PostStatusPublished {
		t.Errorf("status = %q, want published", post.Status)
	}
	if post.XPostID == nil || *post.XPostID != "19001" {
		t.Errorf("x_post_id = %v, want 19001", post.XPostID)
	}
	if post.PublishLockID != nil || post.PublishLockedUntil != nil {
		t.Error("lock fields not cleared after publish")
	}
	if len(store.saved) != 1 {
		t.Errorf("saved %d posts, want 1", len(store.saved))
	}
	if len(notifier.published) != 1 || notifier.published[0] != 1 {
		t.Errorf("published notifications = %v, want [1]", notifier.published)
	}
}

func TestRunSweepAbortsThreadOnFailure(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	head := threadPost(1, 7, "part one", "th_1", 0, due)
	second := threadPost(2, 7, "part two", "th_1", 1, due)
	third := threadPost(3, 7, "part three", "th_1", 2, due)

	store := &fakePostStore{
		heads:   []*models.Post{head},
		threads: map[string][]*models.Post{"th_1": {head, second, third}},
	}
	x := &fakeXClient{
		ids:  []string{"19001", ""},
		errs: []error{nil, &XAPIError{StatusCode: 429}},
	}
	notifier := &fakeNotifier{}

	svc := newSweep(store, &fakeTokenService{token: "access"}, x, notifier, now)
	result, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PostsAttempted != 2 || result.PostsPublished != 1 || result.PostsFailed != 2 {
		t.Errorf("attempted=%d published=%d failed=%d, want 2/1/2",
			result.PostsAttempted, result.PostsPublished, result.PostsFailed)
	}

	if head.Status != models.PostStatusPublished {
		t.Errorf("head status = %q, want published", head.Status)
	}
	if second.Status != models.PostStatusFailed || second.FailureCode == nil || *second.FailureCode != models.FailureRateLimit {
		t.Errorf("second = %q/%v, want failed/RATE_LIMIT", second.Status, second.FailureCode)
	}
	if third.Status != models.PostStatusFailed || third.FailureCode == nil || *third.FailureCode != models.FailureThreadAborted {
		t.Errorf("third = %q/%v, want failed/THREAD_ABORTED", third.Status, third.FailureCode)
	}

	// The second tweet must have been sent as a reply to the head.
	if len(x.repliedTo) != 2 {
		t.Fatalf("tweet calls = %d, want 2", len(x.repliedTo))
	}
	if x.repliedTo[0] != nil {
		t.Errorf("head sent as reply to %v, want standalone", *x.repliedTo[0])
	}
	if x.repliedTo[1] == nil || *x.repliedTo[1] != "19001" {
		t.Errorf("second reply target = %v, want 19001", x.repliedTo[1])
	}

	if len(store.saved) != 3 {
		t.Errorf("saved %d posts, want 3", len(store.saved))
	}
}

func TestRunSweepSkipsContestedClaims(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	mine := duePost(1, 7, "mine", due)
	theirs := duePost(2, 7, "theirs", due)

	store := &fakePostStore{
		heads:     []*models.Post{mine, theirs},
		denyClaim: map[int64]bool{2: true},
	}
	x := &fakeXClient{ids: []string{"19001"}}

	svc := newSweep(store, &fakeTokenService{token: "access"}, x, &fakeNotifier{}, now)
	result, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.HeadsClaimed != 1 || result.SkippedLocked != 1 {
		t.Errorf("claimed=%d skipped=%d, want 1/1", result.HeadsClaimed, result.SkippedLocked)
	}
	if theirs.Status != models.PostStatusScheduled {
		t.Errorf("contested post status = %q, want untouched", theirs.Status)
	}
}

func TestRunSweepFailsGroupWithoutCredentials(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	head := threadPost(1, 7, "part one", "th_1", 0, due)
	second := threadPost(2, 7, "part two", "th_1", 1, due)

	store := &fakePostStore{
		heads:   []*models.Post{head},
		threads: map[string][]*models.Post{"th_1": {head, second}},
	}
	tokens := &fakeTokenService{
		err: &PublishError{Code: models.FailureTokenMissing, Reason: "No auth token found"},
	}
	x := &fakeXClient{}

	svc := newSweep(store, tokens, x, &fakeNotifier{}, now)
	result, err := svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range []*models.Post{head, second} {
		if p.Status != models.PostStatusFailed {
			t.Errorf("post %d status = %q, want failed", p.ID, p.Status)
		}
		if p.FailureCode == nil || *p.FailureCode != models.FailureTokenMissing {
			t.Errorf("post %d failure code = %v, want TOKEN_MISSING", p.ID, p.FailureCode)
		}
	}
	if x.calls != 0 {
		t.Errorf("x api called %d times without credentials", x.calls)
	}
	if result.PostsAttempted != 0 || result.PostsFailed != 0 {
		t.Errorf("attempted=%d failed=%d, want 0/0 for credential failures",
			result.PostsAttempted, result.PostsFailed)
	}
	if len(store.saved) != 2 {
		t.Errorf("saved %d posts, want 2", len(store.saved))
	}
}

func TestMapFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"publish error passthrough", &PublishError{Code: models.FailureTokenRefreshFailed, Reason: "x"}, models.FailureTokenRefreshFailed},
		{"rate limited", &XAPIError{StatusCode: 429}, models.FailureRateLimit},
		{"unauthorized", &XAPIError{StatusCode: 401}, models.FailureUnauthorized},
		{"forbidden", &XAPIError{StatusCode: 403}, models.FailureForbidden},
		{"server error", &XAPIError{StatusCode: 500}, models.FailureXAPIError},
		{"plain error", errors.New("broken pipe"), models.FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, reason := MapFailure(tt.err)
			if code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
			if reason == "" {
				t.Error("reason is empty")
			}
		})
	}
}
