package webhooks

import (
	"io"
	"net/http"
	"time"

	"github.com/hartfieldkennels/kennel-backend/api/responses"
	"github.com/hartfieldkennels/kennel-backend/internal/webhooks"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/metrics"
)

// maxBodyBytes bounds how much of a webhook payload we will buffer.
const maxBodyBytes = 1 << 20

// Receive adapts one payment provider's webhook endpoint onto the shared
// processing pipeline. Verification failures are 4xx so the gateway stops
// retrying forged deliveries; pipeline errors are 5xx so it retries.
func Receive(adapter webhooks.Adapter, svc webhooks.Service, logg *logger.Logger, m *metrics.WebhookMetrics) http.HandlerFunc {
	provider := string(adapter.Provider())
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logg.WithProvider(r.Context(), provider)

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			m.IncRejected(provider, "body_read")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable webhook body"))
			return
		}

		event, err := adapter.VerifyAndParse(ctx, body, r.Header)
		if err != nil {
			m.IncRejected(provider, rejectionReason(err))
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if event == nil {
			// Authentic delivery of an event type we do not act on.
			logg.Info(ctx, "webhook.ignored")
			responses.WriteSuccess(w, map[string]any{"received": true})
			return
		}

		result, err := svc.Process(ctx, event)
		if err != nil {
			responses.WriteWebhookError(ctx, logg, w, err, event.EventType)
			return
		}

		m.ObserveDuration(provider, time.Since(start))
		responses.WriteSuccess(w, map[string]any{
			"received":   true,
			"event_type": result.EventType,
			"duplicate":  result.Duplicate,
		})
	}
}

func rejectionReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeSignature {
		return "signature"
	}
	return "parse"
}
