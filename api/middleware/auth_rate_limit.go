package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hartfieldkennels/kennel-backend/api/responses"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
)

type rateCounter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// LoginRateLimit throttles the admin login endpoint per client IP and per
// submitted email. Emails are hashed before they become Redis keys. A nil
// counter disables throttling entirely (tests, single-operator dev setups).
func LoginRateLimit(cfg config.AuthRateLimitConfig, counter rateCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil || cfg.LoginWindow <= 0 || (cfg.LoginIPLimit <= 0 && cfg.LoginEmailLimit <= 0) {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cfg.LoginIPLimit > 0 {
				ip := clientIP(r)
				blocked, err := overLimit(ctx, counter, "rl:login:ip:"+ip, cfg.LoginWindow, int64(cfg.LoginIPLimit))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if blocked {
					rejectThrottled(ctx, logg, w, "ip", ip)
					return
				}
			}

			if cfg.LoginEmailLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := submittedEmail(body); email != "" {
					hash := hashEmail(email)
					blocked, err := overLimit(ctx, counter, "rl:login:email:"+hash, cfg.LoginWindow, int64(cfg.LoginEmailLimit))
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if blocked {
						rejectThrottled(ctx, logg, w, "email", hash)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func overLimit(ctx context.Context, counter rateCounter, key string, window time.Duration, limit int64) (bool, error) {
	count, err := counter.IncrWithTTL(ctx, key, window)
	if err != nil {
		return false, err
	}
	return count > limit, nil
}

func rejectThrottled(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, scope, subject string) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"scope":   scope,
			"subject": subject,
		}), "auth.login.throttled")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, slow down"))
}

// clientIP prefers proxy headers over the socket address; the API runs
// behind a load balancer in every deployed environment.
func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func submittedEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
