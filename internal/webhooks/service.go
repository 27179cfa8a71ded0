package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartfieldkennels/kennel-backend/internal/alerts"
	"github.com/hartfieldkennels/kennel-backend/internal/ledger"
	"github.com/hartfieldkennels/kennel-backend/internal/notify"
	"github.com/hartfieldkennels/kennel-backend/internal/puppies"
	"github.com/hartfieldkennels/kennel-backend/internal/reservations"
	"github.com/hartfieldkennels/kennel-backend/pkg/db"
	"github.com/hartfieldkennels/kennel-backend/pkg/db/models"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/metrics"
)

// Result is what the webhook handler reports back to the gateway.
type Result struct {
	EventType string
	Duplicate bool
}

// Service runs the idempotent ingest pipeline for verified gateway events.
type Service interface {
	// Process applies one canonical event. The ledger insert, reservation
	// transition, puppy status write and notification enqueue share a
	// single transaction; an error rolls all four back so the gateway's
	// retry is reprocessed from scratch.
	Process(ctx context.Context, event *Event) (*Result, error)
}

type service struct {
	tx              db.TxRunner
	ledgerRepo      ledger.Repository
	reservationRepo reservations.Repository
	puppyRepo       puppies.Repository
	queue           notify.Queue
	sink            alerts.Sink
	logger          *logger.Logger
	metrics         *metrics.WebhookMetrics
	relistOnRefund  bool
}

// NewService wires the webhook ingest pipeline.
func NewService(
	tx db.TxRunner,
	ledgerRepo ledger.Repository,
	reservationRepo reservations.Repository,
	puppyRepo puppies.Repository,
	queue notify.Queue,
	sink alerts.Sink,
	logg *logger.Logger,
	m *metrics.WebhookMetrics,
	relistOnRefund bool,
) Service {
	return &service{
		tx:              tx,
		ledgerRepo:      ledgerRepo,
		reservationRepo: reservationRepo,
		puppyRepo:       puppyRepo,
		queue:           queue,
		sink:            sink,
		logger:          logg,
		metrics:         m,
		relistOnRefund:  relistOnRefund,
	}
}

func (s *service) Process(ctx context.Context, event *Event) (*Result, error) {
	if event.EventID == "" || !event.Provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event is missing provider or id")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"provider":   event.Provider.String(),
		"event_id":   event.EventID,
		"event_type": event.EventType,
	})

	result := &Result{EventType: event.EventType}
	var anomaly *alerts.Anomaly

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		isNew, err := s.ledgerRepo.WithTx(tx).RecordIfNew(ctx, &models.WebhookEvent{
			Provider:          event.Provider,
			EventID:           event.EventID,
			EventType:         event.EventType,
			ExternalPaymentID: event.ExternalPaymentID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording webhook event")
		}
		if !isNew {
			result.Duplicate = true
			return nil
		}

		resRepo := s.reservationRepo.WithTx(tx)
		reservation, err := resRepo.FindByProviderExternalID(ctx, event.Provider, event.ExternalPaymentID)
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			reservation, anomaly, err = s.materialize(ctx, tx, event)
			if err != nil {
				return err
			}
			if reservation == nil {
				return nil
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading reservation")
		}

		transition, err := reservations.Decide(reservation.Status, event.Kind, s.relistOnRefund)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "classifying event")
		}

		switch transition.Outcome {
		case reservations.OutcomeNoop:
			s.logger.Info(ctx, "webhook.noop")
			return nil
		case reservations.OutcomeAnomaly:
			anomaly = &alerts.Anomaly{
				Provider:          event.Provider,
				EventID:           event.EventID,
				EventType:         event.EventType,
				Kind:              event.Kind,
				ReservationID:     reservation.ID.String(),
				ExternalPaymentID: event.ExternalPaymentID,
				CurrentStatus:     reservation.Status,
				Detail:            fmt.Sprintf("stale %s against %s reservation", event.Kind, reservation.Status),
			}
			return nil
		}

		return s.apply(ctx, tx, event, reservation, transition)
	})
	if err != nil {
		return nil, err
	}

	switch {
	case result.Duplicate:
		s.metrics.IncDuplicate(event.Provider.String())
		s.logger.Info(ctx, "webhook.duplicate")
	case anomaly != nil:
		// The ledger row committed; retrying will not help, so the event is
		// acknowledged and routed to a human instead.
		s.metrics.IncAnomaly(event.Provider.String())
		s.sink.Anomaly(ctx, *anomaly)
	default:
		s.metrics.IncProcessed(event.Provider.String(), event.EventType)
		s.logger.Info(ctx, "webhook.processed")
	}
	return result, nil
}

// apply commits a decided transition and its side effects on the shared tx.
func (s *service) apply(ctx context.Context, tx *gorm.DB, event *Event, reservation *models.Reservation, transition reservations.Transition) error {
	resRepo := s.reservationRepo.WithTx(tx)

	// Intake stakes the reservation knowing only the unit; the verified
	// event is the first place the payer's contact appears. Snapshot it so
	// queued notifications have a recipient.
	if reservation.CustomerName == "" && event.CustomerName != "" {
		reservation.CustomerName = event.CustomerName
	}
	if reservation.CustomerEmail == "" && event.CustomerEmail != "" {
		reservation.CustomerEmail = event.CustomerEmail
	}
	if reservation.DepositCents == 0 && event.AmountCents > 0 {
		reservation.DepositCents = event.AmountCents
	}

	reservation.Status = transition.To
	if err := resRepo.Update(ctx, reservation); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing reservation transition")
	}

	var puppy *models.Puppy
	if transition.SetPuppy {
		puppyRepo := s.puppyRepo.WithTx(tx)
		if err := puppyRepo.UpdateStatus(ctx, reservation.PuppyID, transition.PuppyStatus); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing puppy status")
		}
		loaded, err := puppyRepo.FindByID(ctx, reservation.PuppyID)
		if err == nil {
			puppy = loaded
		}
	}

	if transition.Notify {
		if err := s.queue.Enqueue(ctx, tx, transition.Notification, reservation, puppy); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing notification")
		}
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"reservation_id": reservation.ID.String(),
		"from":           string(transition.From),
		"to":             string(transition.To),
	}), "webhook.transition.applied")
	return nil
}

// materialize rebuilds the reservation a webhook refers to when the intake
// write never landed (the gateway fired before intake committed, or intake
// failed after the order was created). Returns a nil reservation with a
// populated anomaly when the event cannot be tied back to a unit. Write
// failures propagate as errors so the whole transaction, including the
// ledger row, rolls back and the gateway's retry starts clean.
func (s *service) materialize(ctx context.Context, tx *gorm.DB, event *Event) (*models.Reservation, *alerts.Anomaly, error) {
	reject := func(detail string) (*models.Reservation, *alerts.Anomaly, error) {
		return nil, &alerts.Anomaly{
			Provider:          event.Provider,
			EventID:           event.EventID,
			EventType:         event.EventType,
			Kind:              event.Kind,
			ExternalPaymentID: event.ExternalPaymentID,
			Detail:            detail,
		}, nil
	}

	// Only session-opening events carry enough context to rebuild a row.
	switch event.Kind {
	case enums.PaymentEventCompleted, enums.PaymentEventPending, enums.PaymentEventAsyncSucceeded:
	default:
		return reject("no reservation on record for event")
	}
	if event.ExternalPaymentID == "" {
		return reject("event carries no payment identifier")
	}

	puppy, err := s.resolvePuppy(ctx, tx, event)
	if err != nil {
		return reject("event references no known unit")
	}

	resRepo := s.reservationRepo.WithTx(tx)
	active, err := resRepo.HasActiveReservation(ctx, puppy.ID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking live reservations")
	}
	if active {
		return reject("unit already holds a live reservation")
	}

	reservation := &models.Reservation{
		PuppyID:           puppy.ID,
		Provider:          event.Provider,
		ExternalPaymentID: event.ExternalPaymentID,
		DepositCents:      event.AmountCents,
		CustomerName:      event.CustomerName,
		CustomerEmail:     event.CustomerEmail,
		Status:            enums.ReservationStatusPending,
	}
	if err := resRepo.Acquire(ctx, reservation); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rebuilding reservation")
	}
	if err := s.puppyRepo.WithTx(tx).UpdateStatus(ctx, puppy.ID, enums.PuppyStatusReserved); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing unit status during rebuild")
	}

	s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
		"reservation_id": reservation.ID.String(),
		"puppy_id":       puppy.ID.String(),
	}), "webhook.reservation.materialized")
	return reservation, nil, nil
}

func (s *service) resolvePuppy(ctx context.Context, tx *gorm.DB, event *Event) (*models.Puppy, error) {
	puppyRepo := s.puppyRepo.WithTx(tx)
	if event.PuppyID != "" {
		id, err := uuid.Parse(event.PuppyID)
		if err == nil {
			if puppy, err := puppyRepo.FindByID(ctx, id); err == nil {
				return puppy, nil
			}
		}
	}
	if event.PuppySlug != "" {
		return puppyRepo.FindBySlug(ctx, event.PuppySlug)
	}
	return nil, gorm.ErrRecordNotFound
}
