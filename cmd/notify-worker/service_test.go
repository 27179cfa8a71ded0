package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hartfieldkennels/kennel-backend/internal/notify"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
)

type testDB struct{ conn *gorm.DB }

func (d *testDB) Ping(context.Context) error { return nil }

func (d *testDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.conn.WithContext(ctx).Transaction(fn)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*gcppubsub.Message
	failUntil int
	calls     int
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failUntil {
		return fakeResult{err: errors.New("topic unavailable")}
	}
	p.published = append(p.published, msg)
	return fakeResult{id: "msg-1"}
}

func (p *fakePublisher) messages() []*gcppubsub.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*gcppubsub.Message(nil), p.published...)
}

type fakeResult struct {
	id  string
	err error
}

func (r fakeResult) Get(context.Context) (string, error) { return r.id, r.err }

func setupWorker(t *testing.T, pub *fakePublisher, maxAttempts int) (*Service, *gorm.DB) {
	t.Helper()

	dsn := "file:notify_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  reservation_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`).Error)

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	cfg := &config.Config{Outbox: config.OutboxConfig{BatchSize: 10, PollIntervalMS: 10, MaxAttempts: maxAttempts}}

	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         &testDB{conn: conn},
		Repository: notify.NewRepository(),
		Publisher:  pub,
	})
	require.NoError(t, err)
	return svc, conn
}

func queueNotification(t *testing.T, conn *gorm.DB, kind enums.NotificationKind, createdAt time.Time) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		Kind:          kind,
		ReservationID: uuid.New(),
		Payload:       []byte(`{"puppy_slug":"luna"}`),
		CreatedAt:     createdAt,
	}
	require.NoError(t, conn.Create(&event).Error)
	return event
}

func TestProcessBatchPublishesOldestFirst(t *testing.T) {
	pub := &fakePublisher{}
	svc, conn := setupWorker(t, pub, 10)

	first := queueNotification(t, conn, enums.NotificationDepositReceived, time.Now().Add(-2*time.Minute))
	second := queueNotification(t, conn, enums.NotificationPaymentRetry, time.Now().Add(-time.Minute))

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)

	msgs := pub.messages()
	require.Len(t, msgs, 2)
	require.Equal(t, first.ID.String(), msgs[0].Attributes["notification_id"])
	require.Equal(t, string(enums.NotificationDepositReceived), msgs[0].Attributes["kind"])
	require.Equal(t, second.ID.String(), msgs[1].Attributes["notification_id"])
	require.JSONEq(t, `{"puppy_slug":"luna"}`, string(msgs[0].Data))

	var remaining int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("published_at IS NULL").Count(&remaining).Error)
	require.Zero(t, remaining)
}

func TestProcessBatchIdleWhenQueueEmpty(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := setupWorker(t, pub, 10)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.False(t, processed)
	require.Empty(t, pub.messages())
}

func TestPublishFailureIncrementsAttemptAndRetries(t *testing.T) {
	pub := &fakePublisher{failUntil: 1}
	svc, conn := setupWorker(t, pub, 10)

	event := queueNotification(t, conn, enums.NotificationDepositReceived, time.Now())

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Empty(t, pub.messages())

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row, "id = ?", event.ID).Error)
	require.Equal(t, 1, row.AttemptCount)
	require.Nil(t, row.PublishedAt)
	require.NotNil(t, row.LastError)
	require.Contains(t, *row.LastError, "topic unavailable")

	// Next pass succeeds and clears the row.
	processed, err = svc.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Len(t, pub.messages(), 1)
}

func TestExhaustedRowsAreLeftBehind(t *testing.T) {
	pub := &fakePublisher{}
	svc, conn := setupWorker(t, pub, 3)

	event := queueNotification(t, conn, enums.NotificationDepositReceived, time.Now())
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("id = ?", event.ID).
		Update("attempt_count", 3).Error)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.False(t, processed)
	require.Empty(t, pub.messages())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := setupWorker(t, pub, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
