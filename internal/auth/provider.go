// Package auth exchanges identity-provider session ids for local sessions and
// resolves session tokens back to users.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultSessionDataURL = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"

var (
	ErrSessionIDRequired   = errors.New("session_id required")
	ErrInvalidSession      = errors.New("invalid session")
	ErrProviderUnavailable = errors.New("auth service error")
)

// Identity is what the provider knows about the person behind a session id.
type Identity struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

type Provider interface {
	SessionData(ctx context.Context, sessionID string) (Identity, error)
}

// HTTPProvider calls the session-data endpoint with the X-Session-ID header.
type HTTPProvider struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultSessionDataURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		url:        url,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (p *HTTPProvider) SessionData(ctx context.Context, sessionID string) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("X-Session-ID", sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: provider status=%d", ErrInvalidSession, resp.StatusCode)
	}

	var identity Identity
	if err := json.Unmarshal(body, &identity); err != nil {
		return Identity{}, fmt.Errorf("%w: decode session data: %v", ErrProviderUnavailable, err)
	}
	identity.Email = strings.TrimSpace(identity.Email)
	if identity.Email == "" {
		return Identity{}, fmt.Errorf("%w: session data has no email", ErrInvalidSession)
	}
	return identity, nil
}
