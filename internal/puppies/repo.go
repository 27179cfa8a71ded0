package puppies

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a puppies repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, puppy *models.Puppy) (*models.Puppy, error) {
	if err := r.db.WithContext(ctx).Create(puppy).Error; err != nil {
		return nil, err
	}
	return puppy, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Puppy, error) {
	var puppy models.Puppy
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&puppy).Error
	if err != nil {
		return nil, err
	}
	return &puppy, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Puppy, error) {
	var puppy models.Puppy
	err := r.db.WithContext(ctx).
		Where("slug = ?", strings.TrimSpace(slug)).
		First(&puppy).Error
	if err != nil {
		return nil, err
	}
	return &puppy, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PuppyStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Puppy{}).
		Where("id = ?", id).
		Update("status", status).Error
}
