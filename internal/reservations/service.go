package reservations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/internal/puppies"
	"github.com/hartfieldkennels/kennel-backend/pkg/db"
	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/pagination"
)

// MinOverrideReasonLen is the shortest accepted override reason.
const MinOverrideReasonLen = 5

// Service exposes the admin-facing reservation operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	Mismatches(ctx context.Context, params pagination.Params) (*List, error)
	// Override forces a reservation to the given status, appending an
	// audit entry. It bypasses the automatic transition rules.
	Override(ctx context.Context, id uuid.UUID, params OverrideParams) (*models.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

type service struct {
	tx             db.TxRunner
	repo           Repository
	puppyRepo      puppies.Repository
	logger         *logger.Logger
	relistOnRefund bool
	now            func() time.Time
}

// NewService wires the reservation service.
func NewService(tx db.TxRunner, repo Repository, puppyRepo puppies.Repository, logg *logger.Logger, relistOnRefund bool) Service {
	return &service{
		tx:             tx,
		repo:           repo,
		puppyRepo:      puppyRepo,
		logger:         logg,
		relistOnRefund: relistOnRefund,
		now:            time.Now,
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reservation")
	}
	return reservation, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing reservations")
	}
	return list, nil
}

func (s *service) Mismatches(ctx context.Context, params pagination.Params) (*List, error) {
	list, err := s.repo.Mismatches(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payment mismatches")
	}
	return list, nil
}

func (s *service) Override(ctx context.Context, id uuid.UUID, params OverrideParams) (*models.Reservation, error) {
	reason := strings.TrimSpace(params.Reason)
	if len(reason) < MinOverrideReasonLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "override reason must be at least 5 characters")
	}
	if !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown reservation status")
	}

	var updated *models.Reservation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reservation, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return err
		}

		from := reservation.Status
		reservation.Status = params.Status
		reservation.AppendNote(models.AuditEntry{
			At:     s.now().UTC(),
			Actor:  params.Actor,
			From:   string(from),
			To:     string(params.Status),
			Reason: reason,
		})
		if err := repo.Update(ctx, reservation); err != nil {
			return err
		}

		if puppyStatus, ok := PuppyEffectForStatus(params.Status, s.relistOnRefund); ok {
			if err := s.puppyRepo.WithTx(tx).UpdateStatus(ctx, reservation.PuppyID, puppyStatus); err != nil {
				return err
			}
		}

		updated = reservation
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "overriding reservation")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"reservation_id": id.String(),
		"from":           string(updated.Notes[len(updated.Notes)-1].From),
		"to":             string(params.Status),
		"actor":          params.Actor,
	})
	s.logger.Info(logCtx, "reservation.override.applied")
	return updated, nil
}

// Delete removes the row outright. Status history lives in the audit notes
// and dies with the row, so the operation itself is logged server-side.
func (s *service) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reservation")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting reservation")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"reservation_id": id.String(),
		"puppy_id":       reservation.PuppyID.String(),
		"status":         string(reservation.Status),
		"provider":       string(reservation.Provider),
		"actor":          actor,
	})
	s.logger.Warn(logCtx, "reservation.deleted")
	return nil
}
