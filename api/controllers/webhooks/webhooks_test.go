package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hartfieldkennels/kennel-backend/internal/webhooks"
	"github.com/hartfieldkennels/kennel-backend/pkg/enums"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/metrics"
)

type fakeAdapter struct {
	event *webhooks.Event
	err   error

	gotBody   []byte
	gotHeader http.Header
}

func (f *fakeAdapter) Provider() enums.PaymentProvider { return enums.PaymentProviderPayPal }

func (f *fakeAdapter) VerifyAndParse(_ context.Context, body []byte, headers http.Header) (*webhooks.Event, error) {
	f.gotBody = body
	f.gotHeader = headers
	return f.event, f.err
}

type fakePipeline struct {
	result   *webhooks.Result
	err      error
	gotEvent *webhooks.Event
}

func (f *fakePipeline) Process(_ context.Context, event *webhooks.Event) (*webhooks.Result, error) {
	f.gotEvent = event
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func receive(t *testing.T, adapter *fakeAdapter, pipeline *fakePipeline, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := Receive(adapter, pipeline, testLogger(), metrics.NewWebhookMetrics(prometheus.NewRegistry()))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paypal", strings.NewReader(body))
	req.Header.Set("Paypal-Transmission-Sig", "sig")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestReceiveProcessesVerifiedEvent(t *testing.T) {
	adapter := &fakeAdapter{event: &webhooks.Event{
		Provider:  enums.PaymentProviderPayPal,
		EventID:   "WH-1",
		EventType: "PAYMENT.CAPTURE.COMPLETED",
		Kind:      enums.PaymentEventCompleted,
	}}
	pipeline := &fakePipeline{result: &webhooks.Result{EventType: "PAYMENT.CAPTURE.COMPLETED"}}

	rec := receive(t, adapter, pipeline, `{"id":"WH-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"WH-1"}`, string(adapter.gotBody))
	require.Equal(t, "sig", adapter.gotHeader.Get("Paypal-Transmission-Sig"))
	require.Equal(t, "WH-1", pipeline.gotEvent.EventID)

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, true, envelope.Data["received"])
	require.Equal(t, "PAYMENT.CAPTURE.COMPLETED", envelope.Data["event_type"])
	require.Equal(t, false, envelope.Data["duplicate"])
}

func TestReceiveReportsDuplicate(t *testing.T) {
	adapter := &fakeAdapter{event: &webhooks.Event{EventID: "WH-1"}}
	pipeline := &fakePipeline{result: &webhooks.Result{EventType: "PAYMENT.CAPTURE.COMPLETED", Duplicate: true}}

	rec := receive(t, adapter, pipeline, `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"duplicate":true`)
}

func TestReceiveRejectsForgedSignature(t *testing.T) {
	adapter := &fakeAdapter{err: pkgerrors.New(pkgerrors.CodeSignature, "webhook signature verification failed")}
	pipeline := &fakePipeline{}

	rec := receive(t, adapter, pipeline, `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, pipeline.gotEvent)
}

func TestReceiveAcknowledgesUnhandledEventTypes(t *testing.T) {
	adapter := &fakeAdapter{} // nil event, nil error
	pipeline := &fakePipeline{}

	rec := receive(t, adapter, pipeline, `{"event_type":"CUSTOMER.DISPUTE.CREATED"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, pipeline.gotEvent)
	require.Contains(t, rec.Body.String(), `"received":true`)
	require.NotContains(t, rec.Body.String(), "event_type")
}

func TestReceivePipelineFailureIsRetryable(t *testing.T) {
	adapter := &fakeAdapter{event: &webhooks.Event{EventID: "WH-1", EventType: "PAYMENT.CAPTURE.COMPLETED"}}
	pipeline := &fakePipeline{err: pkgerrors.New(pkgerrors.CodeDependency, "ledger insert failed")}

	rec := receive(t, adapter, pipeline, `{}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The body names the event type so the gateway's retry can be matched
	// to the delivery that failed.
	var body struct {
		Error     map[string]any `json:"error"`
		EventType string         `json:"event_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "PAYMENT.CAPTURE.COMPLETED", body.EventType)
	require.NotEmpty(t, body.Error["code"])
}
