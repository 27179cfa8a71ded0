package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

// Payload is the message body queued for the external mailer. Customer
// contact data travels in the payload so the mailer never joins back into
// the reservation tables.
type Payload struct {
	ReservationID string `json:"reservation_id"`
	PuppyID       string `json:"puppy_id"`
	PuppySlug     string `json:"puppy_slug,omitempty"`
	PuppyName     string `json:"puppy_name,omitempty"`
	Provider      string `json:"provider"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	DepositCents  int64  `json:"deposit_cents"`
	OccurredAt    string `json:"occurred_at"`
}

// Queue stages notifications transactionally. The outbox insert must share
// the caller's transaction so a rolled-back transition queues nothing.
type Queue interface {
	Enqueue(ctx context.Context, tx *gorm.DB, kind enums.NotificationKind, reservation *models.Reservation, puppy *models.Puppy) error
}

type queue struct {
	now func() time.Time
}

// NewQueue builds the outbox-backed notification queue.
func NewQueue() Queue {
	return &queue{now: time.Now}
}

func (q *queue) Enqueue(ctx context.Context, tx *gorm.DB, kind enums.NotificationKind, reservation *models.Reservation, puppy *models.Puppy) error {
	if tx == nil {
		return fmt.Errorf("notification enqueue requires a transaction")
	}
	if !kind.IsValid() {
		return fmt.Errorf("unknown notification kind %q", kind)
	}

	payload := Payload{
		ReservationID: reservation.ID.String(),
		PuppyID:       reservation.PuppyID.String(),
		Provider:      string(reservation.Provider),
		CustomerName:  reservation.CustomerName,
		CustomerEmail: reservation.CustomerEmail,
		DepositCents:  reservation.DepositCents,
		OccurredAt:    q.now().UTC().Format(time.RFC3339Nano),
	}
	if puppy != nil {
		payload.PuppySlug = puppy.Slug
		if puppy.Name != nil {
			payload.PuppyName = *puppy.Name
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding notification payload: %w", err)
	}

	event := &models.OutboxEvent{
		Kind:          kind,
		ReservationID: reservation.ID,
		Payload:       encoded,
	}
	return tx.WithContext(ctx).Create(event).Error
}

// Repository is the worker-side surface over the outbox table.
type Repository interface {
	FetchUnpublished(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(tx *gorm.DB, id uuid.UUID) error
	MarkFailed(tx *gorm.DB, id uuid.UUID, pubErr error) error
}

type repository struct{}

// NewRepository builds the outbox repository used by the notify worker.
func NewRepository() Repository {
	return &repository{}
}

// FetchUnpublished locks a batch of queued rows for this worker iteration.
func (r *repository) FetchUnpublished(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := tx.
		Where("published_at IS NULL AND attempt_count < ?", maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) MarkPublished(tx *gorm.DB, id uuid.UUID) error {
	return tx.
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
			"last_error":   nil,
		}).Error
}

func (r *repository) MarkFailed(tx *gorm.DB, id uuid.UUID, pubErr error) error {
	msg := ""
	if pubErr != nil {
		msg = pubErr.Error()
	}
	return tx.
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"last_error":    msg,
		}).Error
}
