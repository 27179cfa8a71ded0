package paypal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxMetadataFieldLen is PayPal's hard cap on free-text order fields
// (custom_id, description, reference_id). Requests exceeding it fail at the
// gateway, so params are validated before any network call.
const MaxMetadataFieldLen = 127

// OrderCreateParams describes one deposit order to create with PayPal.
type OrderCreateParams struct {
	// RequestID is sent as PayPal-Request-Id so a retried call cannot
	// create a second order. Each intake attempt mints a fresh one.
	RequestID   string
	ReferenceID string
	CustomID    string
	Description string
	AmountCents int64
	Currency    string
	ReturnURL   string
	CancelURL   string
}

// Validate checks the params against PayPal's field limits.
func (p OrderCreateParams) Validate() error {
	if strings.TrimSpace(p.RequestID) == "" {
		return fmt.Errorf("request id is required")
	}
	if p.AmountCents <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if strings.TrimSpace(p.Currency) == "" {
		return fmt.Errorf("currency is required")
	}
	for name, value := range map[string]string{
		"reference_id": p.ReferenceID,
		"custom_id":    p.CustomID,
		"description":  p.Description,
	} {
		if len(value) > MaxMetadataFieldLen {
			return fmt.Errorf("%s exceeds %d characters", name, MaxMetadataFieldLen)
		}
	}
	return nil
}

func (p OrderCreateParams) toRequest() orderCreateRequest {
	unit := purchaseUnit{
		ReferenceID: p.ReferenceID,
		CustomID:    p.CustomID,
		Description: p.Description,
		Amount: amount{
			CurrencyCode: strings.ToUpper(p.Currency),
			Value:        centsToValue(p.AmountCents),
		},
	}
	req := orderCreateRequest{
		Intent:        "CAPTURE",
		PurchaseUnits: []purchaseUnit{unit},
	}
	if p.ReturnURL != "" || p.CancelURL != "" {
		req.PaymentSource = &paymentSource{PayPal: &paymentSourcePayPal{
			ExperienceContext: &experienceContext{
				ReturnURL: p.ReturnURL,
				CancelURL: p.CancelURL,
			},
		}}
	}
	return req
}

func centsToValue(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

type orderCreateRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
	PaymentSource *paymentSource `json:"payment_source,omitempty"`
}

type purchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	CustomID    string `json:"custom_id,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      amount `json:"amount"`
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paymentSource struct {
	PayPal *paymentSourcePayPal `json:"paypal,omitempty"`
}

type paymentSourcePayPal struct {
	ExperienceContext *experienceContext `json:"experience_context,omitempty"`
}

type experienceContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

// Order is the subset of PayPal's order resource the platform reads.
type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Links         []Link         `json:"links"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

// Link is one HATEOAS link on a PayPal resource.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// ApproveURL returns the buyer-facing approval link, if present.
func (o *Order) ApproveURL() string {
	if o == nil {
		return ""
	}
	for _, link := range o.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return link.Href
		}
	}
	return ""
}

// WebhookVerifyParams carries one delivery's signature material. Body is the
// raw request bytes; re-serializing the payload breaks verification.
type WebhookVerifyParams struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
	Body             json.RawMessage
}

// Validate reports which signature header is missing, if any.
func (p WebhookVerifyParams) Validate() error {
	for name, value := range map[string]string{
		"transmission id":   p.TransmissionID,
		"transmission time": p.TransmissionTime,
		"transmission sig":  p.TransmissionSig,
		"cert url":          p.CertURL,
		"auth algo":         p.AuthAlgo,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if len(p.Body) == 0 {
		return fmt.Errorf("webhook body is required")
	}
	return nil
}

type verifyWebhookRequest struct {
	TransmissionID   string          `json:"transmission_id"`
	TransmissionTime string          `json:"transmission_time"`
	TransmissionSig  string          `json:"transmission_sig"`
	CertURL          string          `json:"cert_url"`
	AuthAlgo         string          `json:"auth_algo"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifyWebhookResponse struct {
	VerificationStatus string `json:"verification_status"`
}
