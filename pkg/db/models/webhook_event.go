package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

// UniqueWebhookEventIndex guards (provider, event_id). The ledger exists
// solely to make webhook processing idempotent under at-least-once delivery.
const UniqueWebhookEventIndex = "ux_webhook_events_provider_event"

// WebhookEvent is one accepted, verified gateway notification. Rows are
// written exactly once, inside the same transaction as the state transition
// they caused, and never mutated afterwards.
type WebhookEvent struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Provider  enums.PaymentProvider `gorm:"column:provider;type:text;not null;uniqueIndex:ux_webhook_events_provider_event"`
	EventID   string                `gorm:"column:event_id;not null;uniqueIndex:ux_webhook_events_provider_event"`
	EventType string                `gorm:"column:event_type;not null"`
	// ExternalPaymentID lets the mismatch report join back to reservations.
	ExternalPaymentID string    `gorm:"column:external_payment_id;not null;default:'';index"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (w *WebhookEvent) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
