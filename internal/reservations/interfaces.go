package reservations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	"github.com/hartfieldkennels/kennel-backend/pkg/pagination"
)

// Repository defines persistence operations for reservation rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Acquire inserts a live reservation. The partial unique index over
	// (puppy_id, live statuses) makes it the race-free Inventory Gate
	// write path; a conflict means another live reservation won.
	Acquire(ctx context.Context, reservation *models.Reservation) error
	HasActiveReservation(ctx context.Context, puppyID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	FindByProviderExternalID(ctx context.Context, provider enums.PaymentProvider, externalID string) (*models.Reservation, error)
	Update(ctx context.Context, reservation *models.Reservation) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	// Mismatches returns pending reservations that carry an external
	// payment id but have no ledger row for it: the signature of a missed
	// or failed webhook.
	Mismatches(ctx context.Context, params pagination.Params) (*List, error)
}
