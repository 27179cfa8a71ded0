package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// expirySkew is subtracted from the token lifetime so a token is refreshed
// before PayPal stops honoring it mid-request.
const expirySkew = 60 * time.Second

// TokenSource supplies OAuth bearer tokens for API calls. Invalidate drops
// the cached token so the next call fetches a fresh one; callers invoke it
// after a 401 instead of waiting out the cached expiry.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// OAuthTokenSource fetches client-credentials tokens and caches them until
// shortly before expiry. Safe for concurrent use.
type OAuthTokenSource struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	now        func() time.Time

	mu    sync.Mutex
	token cachedToken
}

// NewOAuthTokenSource builds a token source against the given API base URL.
func NewOAuthTokenSource(httpClient *http.Client, baseURL, clientID, secret string) *OAuthTokenSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuthTokenSource{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		secret:     secret,
		now:        time.Now,
	}
}

// Token returns a cached token or fetches a new one.
func (s *OAuthTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.value != "" && s.now().Before(s.token.expiresAt) {
		return s.token.value, nil
	}

	token, ttl, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	s.token = cachedToken{
		value:     token,
		expiresAt: s.now().Add(ttl - expirySkew),
	}
	return token, nil
}

// Invalidate clears the cached token.
func (s *OAuthTokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = cachedToken{}
}

func (s *OAuthTokenSource) fetch(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("building token request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("decoding token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("token endpoint returned empty token")
	}

	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl <= expirySkew {
		ttl = expirySkew * 2
	}
	return payload.AccessToken, ttl, nil
}
