package auth

import (
	"context"

	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
)

// Repository defines persistence operations for console operators.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, operator *models.AdminUser) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an admin user repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var operator models.AdminUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&operator).Error
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

func (r *repository) Create(ctx context.Context, operator *models.AdminUser) error {
	return r.db.WithContext(ctx).Create(operator).Error
}
