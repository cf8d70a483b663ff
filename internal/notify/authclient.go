package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrInvalidCredentials means the auth endpoint rejected a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshRejected means the refresh token is no longer accepted;
	// the subscriber must log in again.
	ErrRefreshRejected = errors.New("refresh token rejected")
)

// AuthClient exchanges credentials for JWT token pairs against the fleet
// API. Tokens are opaque to the notifier; it only carries them.
type AuthClient struct {
	baseURL string
	http    *http.Client
}

func NewAuthClient(baseURL string) *AuthClient {
	return &AuthClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Login exchanges username/password for an access+refresh token pair. Any
// non-200 response maps to ErrInvalidCredentials, mirroring the API's
// behavior of not distinguishing failure causes to callers.
func (c *AuthClient) Login(ctx context.Context, username, password string) (access, refresh string, err error) {
	body := map[string]string{"username": username, "password": password}

	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := c.post(ctx, c.baseURL+"token/", body, &out); err != nil {
		return "", "", err
	}
	if out.Access == "" || out.Refresh == "" {
		return "", "", ErrInvalidCredentials
	}
	return out.Access, out.Refresh, nil
}

// Refresh trades a refresh token for a new access token.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	body := map[string]string{"refresh": refreshToken}

	var out struct {
		Access string `json:"access"`
	}
	if err := c.post(ctx, c.baseURL+"token/refresh/", body, &out); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return "", ErrRefreshRejected
		}
		return "", err
	}
	if out.Access == "" {
		return "", ErrRefreshRejected
	}
	return out.Access, nil
}

func (c *AuthClient) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrInvalidCredentials
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}
	return nil
}
