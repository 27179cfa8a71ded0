// Package types holds the wire envelopes shared by every API surface.
package types

// SuccessEnvelope wraps every 2xx JSON body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`

	// EventType is set only on webhook processing failures so the gateway
	// can correlate the delivery it will retry.
	EventType string `json:"event_type,omitempty"`
}
