package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

// UniqueLiveReservationIndex is the partial unique index enforcing the
// at-most-one-live-reservation rule per puppy. It is created in the
// migrations; repositories reference the name to classify conflicts.
const UniqueLiveReservationIndex = "ux_reservations_live_puppy"

// UniqueExternalPaymentIndex guards (provider, external_payment_id).
const UniqueExternalPaymentIndex = "ux_reservations_provider_external"

// AuditEntry is one append-only note on a reservation. Entries are never
// rewritten; admin overrides add to the tail.
type AuditEntry struct {
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Reason string    `json:"reason"`
}

// Reservation binds one customer's payment attempt to one puppy. A puppy may
// accumulate many reservations over time but at most one live one.
type Reservation struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	PuppyID           uuid.UUID               `gorm:"column:puppy_id;type:uuid;not null;index"`
	Provider          enums.PaymentProvider   `gorm:"column:provider;type:text;not null"`
	ExternalPaymentID string                  `gorm:"column:external_payment_id;not null"`
	DepositCents      int64                   `gorm:"column:deposit_cents;not null"`
	CustomerName      string                  `gorm:"column:customer_name"`
	CustomerEmail     string                  `gorm:"column:customer_email"`
	Status            enums.ReservationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Notes             []AuditEntry            `gorm:"column:notes;type:jsonb;serializer:json"`
	Puppy             *Puppy                  `gorm:"foreignKey:PuppyID"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Reservation) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// AppendNote records an audit entry without touching prior history.
func (r *Reservation) AppendNote(entry AuditEntry) {
	r.Notes = append(r.Notes, entry)
}
