package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	config "github.com/maheshrc27/xflow/configs"
	"github.com/maheshrc27/xflow/internal/models"
)

type fakeDeviceTokenRepo struct {
	tokens      []string
	upserted    []*models.DeviceToken
	deactivated []string
}

func (f *fakeDeviceTokenRepo) ListActiveTokens(_ context.Context, _ int64, limit int) ([]string, error) {
	if len(f.tokens) > limit {
		return f.tokens[:limit], nil
	}
	return f.tokens, nil
}

func (f *fakeDeviceTokenRepo) Upsert(_ context.Context, token *models.DeviceToken) error {
	f.upserted = append(f.upserted, token)
	return nil
}

func (f *fakeDeviceTokenRepo) Deactivate(_ context.Context, _ int64, token string) error {
	f.deactivated = append(f.deactivated, token)
	return nil
}

func TestSendToUserFansOut(t *testing.T) {
	var mu sync.Mutex
	var received []pushMessage
	var auths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg pushMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		mu.Lock()
		received = append(received, msg)
		auths = append(auths, r.Header.Get("Authorization"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := &fakeDeviceTokenRepo{tokens: []string{"tok-a", "tok-b"}}
	svc := NewPushService(config.Config{PushGateway: server.URL, PushAuthKey: "gw-key"}, repo)

	err := svc.SendToUser(context.Background(), 7, "Tweet published", "hello", map[string]string{"post_id": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(received) != 2 {
		t.Fatalf("gateway got %d messages, want 2", len(received))
	}
	seen := map[string]bool{}
	for i, msg := range received {
		seen[msg.To] = true
		if msg.Title != "Tweet published" || msg.Body != "hello" {
			t.Errorf("message %d = %+v", i, msg)
		}
		if auths[i] != "Bearer gw-key" {
			t.Errorf("auth header = %q", auths[i])
		}
	}
	if !seen["tok-a"] || !seen["tok-b"] {
		t.Errorf("delivered to %v, want both tokens", seen)
	}
}

func TestSendToUserToleratesGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := &fakeDeviceTokenRepo{tokens: []string{"tok-a"}}
	svc := NewPushService(config.Config{PushGateway: server.URL}, repo)

	// Delivery failures are logged, never surfaced.
	if err := svc.SendToUser(context.Background(), 7, "t", "b", nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSendToUserWithoutGateway(t *testing.T) {
	svc := NewPushService(config.Config{}, &fakeDeviceTokenRepo{tokens: []string{"tok-a"}})
	if err := svc.SendToUser(context.Background(), 7, "t", "b", nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDeviceRegister(t *testing.T) {
	repo := &fakeDeviceTokenRepo{}
	svc := NewDeviceService(repo)

	if err := svc.Register(context.Background(), 7, "tok-a", "ios", "device-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("upserted %d tokens, want 1", len(repo.upserted))
	}
	got := repo.upserted[0]
	if got.UserID != 7 || got.Token != "tok-a" || got.Platform != "ios" {
		t.Errorf("upserted = %+v", got)
	}
	if got.DeviceID == nil || *got.DeviceID != "device-1" {
		t.Errorf("device id = %v, want device-1", got.DeviceID)
	}

	if err := svc.Register(context.Background(), 7, "", "ios", ""); err == nil {
		t.Error("empty token accepted")
	}

	if err := svc.Deactivate(context.Background(), 7, "tok-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deactivated) != 1 || repo.deactivated[0] != "tok-a" {
		t.Errorf("deactivated = %v, want [tok-a]", repo.deactivated)
	}
}
