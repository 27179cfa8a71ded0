package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hartfieldkennels/kennel-backend/internal/auth"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
)

type fakeAuthService struct {
	session *auth.Session
	err     error

	gotEmail    string
	gotPassword string
}

func (f *fakeAuthService) Login(_ context.Context, email, password string) (*auth.Session, error) {
	f.gotEmail = email
	f.gotPassword = password
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "kennel-test",
		ExpirationMinutes: 30,
		CookieName:        "kennel_admin_session",
		CookieSecure:      true,
	}
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestAdminLoginSetsSessionCookie(t *testing.T) {
	expires := time.Now().Add(30 * time.Minute)
	svc := &fakeAuthService{session: &auth.Session{
		Token:     "jwt-token",
		Operator:  &models.AdminUser{ID: uuid.New(), Email: "admin@hartfieldkennels.com"},
		ExpiresAt: expires,
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login",
		strings.NewReader(`{"email":"admin@hartfieldkennels.com","password":"hunter2-hunter2"}`))
	rec := httptest.NewRecorder()
	AdminLogin(svc, testJWTConfig(), testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "admin@hartfieldkennels.com", svc.gotEmail)

	cookie := findCookie(t, rec, "kennel_admin_session")
	require.Equal(t, "jwt-token", cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.WithinDuration(t, expires, cookie.Expires, time.Second)

	// The token never leaks into the body.
	require.NotContains(t, rec.Body.String(), "jwt-token")
	data := decodeData(t, rec)
	operator := data["operator"].(map[string]any)
	require.Equal(t, "admin@hartfieldkennels.com", operator["email"])
}

func TestAdminLoginRejectedCredentials(t *testing.T) {
	svc := &fakeAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login",
		strings.NewReader(`{"email":"admin@hartfieldkennels.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	AdminLogin(svc, testJWTConfig(), testLogger())(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Result().Cookies())
}

func TestAdminLoginValidatesBody(t *testing.T) {
	svc := &fakeAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login",
		strings.NewReader(`{"email":"not-an-email"}`))
	rec := httptest.NewRecorder()
	AdminLogin(svc, testJWTConfig(), testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, svc.gotEmail)
}

func TestAdminLogoutExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminLogout(testJWTConfig(), testLogger())(rec, httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/logout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := findCookie(t, rec, "kennel_admin_session")
	require.Empty(t, cookie.Value)
	require.True(t, cookie.Expires.Before(time.Now()))
}
