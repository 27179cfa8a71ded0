package alerts

import (
	"context"

	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
)

// Anomaly describes a webhook that arrived against a reservation whose state
// can no longer accept it. The event is recorded and acknowledged but the
// transition is not applied; a human decides what, if anything, to fix.
type Anomaly struct {
	Provider          enums.PaymentProvider
	EventID           string
	EventType         string
	Kind              enums.PaymentEventKind
	ReservationID     string
	ExternalPaymentID string
	CurrentStatus     enums.ReservationStatus
	Detail            string
}

// Sink receives anomalies. Delivery is best effort; a failing sink must never
// fail the webhook request that raised the anomaly.
type Sink interface {
	Anomaly(ctx context.Context, a Anomaly)
}

type logSink struct {
	logger *logger.Logger
}

// NewLogSink returns a Sink that surfaces anomalies through the structured
// log at error level, where the alerting pipeline picks them up.
func NewLogSink(logg *logger.Logger) Sink {
	return &logSink{logger: logg}
}

func (s *logSink) Anomaly(ctx context.Context, a Anomaly) {
	ctx = s.logger.WithFields(ctx, map[string]any{
		"provider":            a.Provider.String(),
		"event_id":            a.EventID,
		"event_type":          a.EventType,
		"event_kind":          a.Kind.String(),
		"reservation_id":      a.ReservationID,
		"external_payment_id": a.ExternalPaymentID,
		"current_status":      string(a.CurrentStatus),
		"detail":              a.Detail,
	})
	s.logger.Error(ctx, "webhook.anomaly", nil)
}
