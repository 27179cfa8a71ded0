package paypal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	var fetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/oauth2/token" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "client" || pass != "secret" {
			t.Fatalf("expected basic auth credentials")
		}
		n := fetches.Add(1)
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":3600}`, n)
	}))
	defer server.Close()

	source := NewOAuthTokenSource(server.Client(), server.URL, "client", "secret")
	now := time.Now()
	source.now = func() time.Time { return now }

	tok, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("first token: %v", err)
	}
	if tok != "token-1" {
		t.Fatalf("unexpected token %q", tok)
	}

	// Within the lifetime the cached token is reused.
	if tok, _ = source.Token(context.Background()); tok != "token-1" {
		t.Fatalf("expected cached token, got %q", tok)
	}

	// Past expiry minus skew a fresh token is fetched.
	now = now.Add(time.Hour)
	if tok, _ = source.Token(context.Background()); tok != "token-2" {
		t.Fatalf("expected refreshed token, got %q", tok)
	}
	if fetches.Load() != 2 {
		t.Fatalf("expected 2 fetches, got %d", fetches.Load())
	}
}

func TestTokenSourceInvalidate(t *testing.T) {
	var fetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := fetches.Add(1)
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":3600}`, n)
	}))
	defer server.Close()

	source := NewOAuthTokenSource(server.Client(), server.URL, "client", "secret")
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	source.Invalidate()
	tok, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("token after invalidate: %v", err)
	}
	if tok != "token-2" {
		t.Fatalf("expected refetched token, got %q", tok)
	}
}

func TestTokenSourceRejectsNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := NewOAuthTokenSource(server.Client(), server.URL, "client", "bad")
	if _, err := source.Token(context.Background()); err == nil {
		t.Fatalf("expected error for rejected credentials")
	}
}
