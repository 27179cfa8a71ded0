package reservations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	"github.com/hartfieldkennels/kennel-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reservations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Acquire(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *repository) HasActiveReservation(ctx context.Context, puppyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("puppy_id = ? AND status IN ?", puppyID, liveStatuses()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Puppy").
		Where("id = ?", id).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) FindByProviderExternalID(ctx context.Context, provider enums.PaymentProvider, externalID string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Puppy").
		Where("provider = ? AND external_payment_id = ?", provider, externalID).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) Update(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Reservation{}).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	query := r.db.WithContext(ctx).Model(&models.Reservation{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Provider != nil {
		query = query.Where("provider = ?", *filters.Provider)
	}
	if filters.StartDate != nil {
		query = query.Where("created_at >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("created_at <= ?", *filters.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Reservation
	err := query.
		Preload("Puppy").
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return newList(items, total, params), nil
}

func (r *repository) Mismatches(ctx context.Context, params pagination.Params) (*List, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status = ?", enums.ReservationStatusPending).
		Where("external_payment_id <> ''").
		Where(`NOT EXISTS (
			SELECT 1 FROM webhook_events w
			WHERE w.provider = reservations.provider
			  AND w.external_payment_id = reservations.external_payment_id
		)`)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Reservation
	err := query.
		Preload("Puppy").
		Order("created_at ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return newList(items, total, params), nil
}

func liveStatuses() []enums.ReservationStatus {
	return []enums.ReservationStatus{
		enums.ReservationStatusPending,
		enums.ReservationStatusPaid,
	}
}
