package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/auth"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/security"
)

// Session is a freshly minted admin session.
type Session struct {
	Token     string
	Operator  *models.AdminUser
	ExpiresAt time.Time
}

// Service authenticates console operators.
type Service interface {
	// Login verifies credentials and mints a session token. Unknown email
	// and wrong password are indistinguishable to the caller.
	Login(ctx context.Context, email, password string) (*Session, error)
}

type service struct {
	repo   Repository
	jwtCfg config.JWTConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewService wires the admin auth service.
func NewService(repo Repository, jwtCfg config.JWTConfig, logg *logger.Logger) Service {
	return &service{repo: repo, jwtCfg: jwtCfg, logger: logg, now: time.Now}
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	operator, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading operator")
	}

	ok, err := security.VerifyPassword(password, operator.PasswordHash)
	if err != nil || !ok {
		s.logger.Warn(s.logger.WithField(ctx, "email", email), "auth.login.rejected")
		return nil, invalidCredentials()
	}

	now := s.now()
	token, err := auth.MintSessionToken(s.jwtCfg, now, auth.SessionTokenPayload{
		OperatorID: operator.ID,
		Email:      operator.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting session token")
	}

	s.logger.Info(s.logger.WithOperator(ctx, operator.Email), "auth.login.succeeded")
	return &Session{
		Token:     token,
		Operator:  operator,
		ExpiresAt: now.Add(s.jwtCfg.SessionTTL()),
	}, nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
