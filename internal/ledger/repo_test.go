package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ledger_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS webhook_events (
  id TEXT PRIMARY KEY,
  provider TEXT NOT NULL,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL DEFAULT '',
  external_payment_id TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_webhook_events_provider_event ON webhook_events (provider, event_id);`).Error)
	return db
}

func TestRecordIfNew(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := &models.WebhookEvent{
		Provider:          enums.PaymentProviderStripe,
		EventID:           "evt_123",
		EventType:         "checkout.session.completed",
		ExternalPaymentID: "cs_test_1",
	}
	isNew, err := repo.RecordIfNew(ctx, first)
	require.NoError(t, err)
	require.True(t, isNew)

	// Same delivery again is a duplicate, not an error.
	replay := &models.WebhookEvent{
		Provider:          enums.PaymentProviderStripe,
		EventID:           "evt_123",
		EventType:         "checkout.session.completed",
		ExternalPaymentID: "cs_test_1",
	}
	isNew, err = repo.RecordIfNew(ctx, replay)
	require.NoError(t, err)
	require.False(t, isNew)

	// Same event id on the other provider is a distinct event.
	other := &models.WebhookEvent{
		Provider:  enums.PaymentProviderPayPal,
		EventID:   "evt_123",
		EventType: "PAYMENT.CAPTURE.COMPLETED",
	}
	isNew, err = repo.RecordIfNew(ctx, other)
	require.NoError(t, err)
	require.True(t, isNew)

	var count int64
	require.NoError(t, db.Model(&models.WebhookEvent{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestRecordIfNewRollsBackWithTx(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	// The ledger write shares the caller's transaction; a rollback must
	// leave no trace so the gateway's retry is reprocessed.
	tx := db.Begin()
	require.NoError(t, tx.Error)
	isNew, err := repo.WithTx(tx).RecordIfNew(ctx, &models.WebhookEvent{
		Provider: enums.PaymentProviderStripe,
		EventID:  "evt_rollback",
	})
	require.NoError(t, err)
	require.True(t, isNew)
	require.NoError(t, tx.Rollback().Error)

	isNew, err = repo.RecordIfNew(ctx, &models.WebhookEvent{
		Provider: enums.PaymentProviderStripe,
		EventID:  "evt_rollback",
	})
	require.NoError(t, err)
	require.True(t, isNew)
}

func TestHasEvent(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ok, err := repo.HasEvent(ctx, enums.PaymentProviderPayPal, "WH-1")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = repo.RecordIfNew(ctx, &models.WebhookEvent{
		Provider: enums.PaymentProviderPayPal,
		EventID:  "WH-1",
	})
	require.NoError(t, err)

	ok, err = repo.HasEvent(ctx, enums.PaymentProviderPayPal, "WH-1")
	require.NoError(t, err)
	require.True(t, ok)
}
