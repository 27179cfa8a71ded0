package puppies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

// Repository defines persistence operations for inventory units.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, puppy *models.Puppy) (*models.Puppy, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Puppy, error)
	FindBySlug(ctx context.Context, slug string) (*models.Puppy, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PuppyStatus) error
}
