package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	config "github.com/maheshrc27/xflow/configs"
	"github.com/maheshrc27/xflow/internal/models"
	"github.com/maheshrc27/xflow/internal/repository"
)

// maxDevicesPerUser caps push fan-out per user.
const maxDevicesPerUser = 20

// PushSender delivers a push message to every active device of a user.
type PushSender interface {
	SendToUser(ctx context.Context, userID int64, title, body string, data map[string]string) error
}

type pushService struct {
	cfg  config.Config
	dt   repository.DeviceTokenRepository
	http *http.Client
}

func NewPushService(cfg config.Config, dt repository.DeviceTokenRepository) PushSender {
	return &pushService{
		cfg:  cfg,
		dt:   dt,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type pushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func (s *pushService) SendToUser(ctx context.Context, userID int64, title, body string, data map[string]string) error {
	if s.cfg.PushGateway == "" {
		slog.Info("push gateway not configured, skipping", "user_id", userID)
		return nil
	}

	tokens, err := s.dt.ListActiveTokens(ctx, userID, maxDevicesPerUser)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		slog.Info("push: no device tokens", "user_id", userID)
		return nil
	}

	for _, token := range tokens {
		if err := s.send(ctx, pushMessage{To: token, Title: title, Body: body, Data: data}); err != nil {
			// One dead token must not block the rest.
			slog.Warn("push delivery failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

func (s *pushService) send(ctx context.Context, msg pushMessage) error {
	buf, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.PushGateway, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.PushAuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.PushAuthKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push gateway status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// DeviceService manages the push token registry.
type DeviceService interface {
	Register(ctx context.Context, userID int64, token, platform, deviceID string) error
	Deactivate(ctx context.Context, userID int64, token string) error
}

type deviceService struct {
	dt repository.DeviceTokenRepository
}

func NewDeviceService(dt repository.DeviceTokenRepository) DeviceService {
	return &deviceService{dt: dt}
}

func (s *deviceService) Register(ctx context.Context, userID int64, token, platform, deviceID string) error {
	if token == "" {
		return fmt.Errorf("device token cannot be empty")
	}
	var device *string
	if deviceID != "" {
		device = &deviceID
	}
	return s.dt.Upsert(ctx, &models.DeviceToken{
		UserID:   userID,
		Token:    token,
		Platform: platform,
		DeviceID: device,
	})
}

func (s *deviceService) Deactivate(ctx context.Context, userID int64, token string) error {
	return s.dt.Deactivate(ctx, userID, token)
}
