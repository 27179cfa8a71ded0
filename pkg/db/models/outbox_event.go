package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

// OutboxEvent is one queued customer notification. Rows are inserted in the
// same transaction as the reservation transition that triggered them, so a
// retried webhook can never queue the same email twice.
type OutboxEvent struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Kind          enums.NotificationKind `gorm:"column:kind;type:text;not null"`
	ReservationID uuid.UUID              `gorm:"column:reservation_id;type:uuid;not null"`
	Payload       json.RawMessage        `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time             `gorm:"column:published_at"`
	AttemptCount  int                    `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                `gorm:"column:last_error"`
}

func (o *OutboxEvent) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
