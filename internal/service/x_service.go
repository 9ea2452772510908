package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/maheshrc27/xflow/configs"
	"github.com/maheshrc27/xflow/internal/transfer"
	"github.com/maheshrc27/xflow/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	xAuthorizeURL = "https://twitter.com/i/oauth2/authorize"
	xTokenURL     = "https://api.twitter.com/2/oauth2/token"
	xTweetsURL    = "https://api.twitter.com/2/tweets"
	xMeURL        = "https://api.twitter.com/2/users/me?user.fields=profile_image_url"
)

// XAPIError carries the HTTP classification of a failed X API call so the
// publish sweep can map it to a failure code.
type XAPIError struct {
	StatusCode int
	Body       string
}

func (e *XAPIError) Error() string {
	return fmt.Sprintf("x api error: status %d", e.StatusCode)
}

type XUserProfile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}

type XApiClient interface {
	AuthorizationURL() (string, error)
	ExchangeCode(ctx context.Context, code, state string) (*transfer.XAuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*transfer.XAuthResult, error)
	PostTweet(ctx context.Context, accessToken, text string, inReplyTo *string) (string, error)
	GetMe(ctx context.Context, accessToken string) (*XUserProfile, error)
}

type xApiService struct {
	cfg    config.Config
	http   *http.Client
	oauth  *oauth2.Config
	mu     sync.Mutex
	states map[string]stateEntry
}

type stateEntry struct {
	verifier  string
	expiresAt time.Time
}

func NewXApiService(cfg config.Config) XApiClient {
	return &xApiService{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		oauth: &oauth2.Config{
			ClientID:     cfg.XClientID,
			ClientSecret: cfg.XClientSecret,
			RedirectURL:  cfg.XRedirectURI,
			Scopes:       strings.Fields(cfg.XScopes),
			Endpoint: oauth2.Endpoint{
				AuthURL:   xAuthorizeURL,
				TokenURL:  xTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		states: make(map[string]stateEntry),
	}
}

// AuthorizationURL builds the PKCE authorize redirect and remembers the
// verifier under the state value for the later callback.
func (s *xApiService) AuthorizationURL() (string, error) {
	state, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	verifier, err := utils.GenerateRandomKey(48)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.states[state] = stateEntry{verifier: verifier, expiresAt: time.Now().Add(10 * time.Minute)}
	for k, v := range s.states {
		if time.Now().After(v.expiresAt) {
			delete(s.states, k)
		}
	}
	s.mu.Unlock()

	authURL := s.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", utils.CodeChallengeS256(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"))
	return authURL, nil
}

func (s *xApiService) ExchangeCode(ctx context.Context, code, state string) (*transfer.XAuthResult, error) {
	s.mu.Lock()
	entry, ok := s.states[state]
	delete(s.states, state)
	s.mu.Unlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, errors.New("invalid state or session expired")
	}

	token, err := s.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", entry.verifier))
	if err != nil {
		slog.Error(err.Error())
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	return &transfer.XAuthResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    int(time.Until(token.Expiry).Seconds()),
	}, nil
}

// RefreshToken hits the token endpoint directly rather than through a
// TokenSource so the HTTP status survives for failure classification.
func (s *xApiService) RefreshToken(ctx context.Context, refreshToken string) (*transfer.XAuthResult, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", s.cfg.XClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, xTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.cfg.XClientSecret != "" {
		req.SetBasicAuth(s.cfg.XClientID, s.cfg.XClientSecret)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		slog.Error("token refresh failed", "status", resp.StatusCode, "body", string(body))
		return nil, &XAPIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("invalid token response: %w", err)
	}

	return &transfer.XAuthResult{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
	}, nil
}

// PostTweet publishes one tweet, optionally as a reply, and returns the
// new tweet id.
func (s *xApiService) PostTweet(ctx context.Context, accessToken, text string, inReplyTo *string) (string, error) {
	payload := map[string]any{"text": text}
	if inReplyTo != nil && *inReplyTo != "" {
		payload["reply"] = map[string]string{"in_reply_to_tweet_id": *inReplyTo}
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, xTweetsURL, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("tweet publish failed", "status", resp.StatusCode, "body", string(body))
		return "", &XAPIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tweet struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &tweet); err != nil {
		return "", fmt.Errorf("invalid tweet response: %w", err)
	}
	if tweet.Data.ID == "" {
		return "", errors.New("tweet response missing id")
	}
	return tweet.Data.ID, nil
}

func (s *xApiService) GetMe(ctx context.Context, accessToken string) (*XUserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, xMeURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &XAPIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var me struct {
		Data XUserProfile `json:"data"`
	}
	if err := json.Unmarshal(body, &me); err != nil {
		return nil, fmt.Errorf("invalid user response: %w", err)
	}
	return &me.Data, nil
}
