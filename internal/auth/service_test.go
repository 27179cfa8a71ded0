package auth

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	authpkg "github.com/hartfieldkennels/kennel-backend/pkg/auth"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "kennel-test",
		ExpirationMinutes: 30,
	}
}

func setupAuth(t *testing.T) (Service, Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS admin_users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)

	repo := NewRepository(db)
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	return NewService(repo, testJWTConfig(), logg), repo
}

func seedOperator(t *testing.T, repo Repository, email, password string) *models.AdminUser {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)

	operator := &models.AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Operator",
	}
	require.NoError(t, repo.Create(context.Background(), operator))
	return operator
}

func TestLoginMintsParsableSession(t *testing.T) {
	svc, repo := setupAuth(t)
	operator := seedOperator(t, repo, "ops@hartfield.test", "correct horse battery")

	session, err := svc.Login(context.Background(), "ops@hartfield.test", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, operator.ID, session.Operator.ID)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), session.ExpiresAt, 5*time.Second)

	claims, err := authpkg.ParseSessionToken(testJWTConfig(), session.Token)
	require.NoError(t, err)
	require.Equal(t, operator.ID, claims.OperatorID)
	require.Equal(t, "ops@hartfield.test", claims.Email)
}

func TestLoginNormalizesEmailCase(t *testing.T) {
	svc, repo := setupAuth(t)
	seedOperator(t, repo, "ops@hartfield.test", "correct horse battery")

	session, err := svc.Login(context.Background(), "  OPS@Hartfield.Test ", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
}

func TestLoginRejectionsAreIndistinguishable(t *testing.T) {
	svc, repo := setupAuth(t)
	seedOperator(t, repo, "ops@hartfield.test", "correct horse battery")

	_, wrongPassword := svc.Login(context.Background(), "ops@hartfield.test", "wrong")
	_, unknownEmail := svc.Login(context.Background(), "ghost@hartfield.test", "wrong")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	var typed *pkgerrors.Error
	require.ErrorAs(t, wrongPassword, &typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLoginRequiresCredentials(t *testing.T) {
	svc, _ := setupAuth(t)

	_, err := svc.Login(context.Background(), "", "")
	require.Error(t, err)

	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
