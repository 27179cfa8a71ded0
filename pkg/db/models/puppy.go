package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

// Puppy is one sellable, non-divisible unit. Catalog management creates these;
// the reservation subsystem is the only writer of Status once a reservation
// touches the row. Puppies are archived, never deleted.
type Puppy struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Slug      string            `gorm:"column:slug;uniqueIndex;not null"`
	Name      *string           `gorm:"column:name"`
	Price     decimal.Decimal   `gorm:"column:price;type:numeric(10,2);not null"`
	Status    enums.PuppyStatus `gorm:"column:status;type:text;not null;default:'upcoming'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Puppy) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
