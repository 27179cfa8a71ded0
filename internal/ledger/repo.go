package ledger

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

// Repository is the append-only webhook event ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// RecordIfNew inserts the event row and reports whether it was new.
	// A false result means the same delivery was already processed; the
	// caller must short-circuit without re-running side effects.
	RecordIfNew(ctx context.Context, event *models.WebhookEvent) (bool, error)
	HasEvent(ctx context.Context, provider enums.PaymentProvider, eventID string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// RecordIfNew is a single atomic insert-with-conflict-check. A separate
// check-then-insert pair would double-process concurrent retries of the
// same event.
func (r *repository) RecordIfNew(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) HasEvent(ctx context.Context, provider enums.PaymentProvider, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
