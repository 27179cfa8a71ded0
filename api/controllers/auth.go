package controllers

import (
	"net/http"
	"time"

	"github.com/hartfieldkennels/kennel-backend/api/responses"
	"github.com/hartfieldkennels/kennel-backend/api/validators"
	"github.com/hartfieldkennels/kennel-backend/internal/auth"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminLogin authenticates an operator and sets the session cookie. The
// token only travels in the cookie, never in the response body.
func AdminLogin(svc auth.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, sessionCookie(jwtCfg, session.Token, session.ExpiresAt))
		responses.WriteSuccess(w, map[string]any{
			"operator": map[string]string{
				"id":    session.Operator.ID.String(),
				"email": session.Operator.Email,
			},
			"expires_at": session.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}

// AdminLogout clears the session cookie. There is no server-side session
// state to revoke; the JWT simply stops being presented.
func AdminLogout(jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, sessionCookie(jwtCfg, "", time.Unix(0, 0)))
		logg.Info(r.Context(), "auth.logout")
		responses.WriteSuccess(w, map[string]bool{"logged_out": true})
	}
}

func sessionCookie(cfg config.JWTConfig, token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
