package middleware

import (
	"context"
	"net/http"

	"github.com/hartfieldkennels/kennel-backend/api/responses"
	pkgAuth "github.com/hartfieldkennels/kennel-backend/pkg/auth"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
)

// AdminSession validates the HTTP-only session cookie and seeds the request
// context with the operator identity. Rejection happens before any business
// logic; handlers behind this middleware can assume a valid operator.
func AdminSession(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, cookie.Value)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxOperatorID, claims.OperatorID.String())
			ctx = context.WithValue(ctx, ctxOperatorEmail, claims.Email)
			if logg != nil {
				ctx = logg.WithOperator(ctx, claims.Email)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
