package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	pkgerrors "github.com/hartfieldkennels/kennel-backend/pkg/errors"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
)

const (
	sandboxEnv = "sandbox"
	liveEnv    = "live"

	verificationSuccess = "SUCCESS"
)

// Webhook signature headers as PayPal sends them.
const (
	HeaderTransmissionID   = "Paypal-Transmission-Id"
	HeaderTransmissionTime = "Paypal-Transmission-Time"
	HeaderTransmissionSig  = "Paypal-Transmission-Sig"
	HeaderCertURL          = "Paypal-Cert-Url"
	HeaderAuthAlgo         = "Paypal-Auth-Algo"
)

var (
	errCredentialsRequired = errors.New("paypal client id and secret are required")
	errWebhookIDRequired   = errors.New("paypal webhook id is not configured")
	errInvalidPayPalEnv    = fmt.Errorf("paypal environment must be %q or %q", sandboxEnv, liveEnv)
	errLoggerRequired      = errors.New("paypal logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv: "https://api-m.sandbox.paypal.com",
	liveEnv:    "https://api-m.paypal.com",
}

// Client exposes PayPal primitives with centralized auth, logging, and error mapping.
type Client struct {
	httpClient  *http.Client
	tokens      TokenSource
	environment string
	webhookID   string
	baseURL     string
	logger      *logger.Logger
}

// NewClient initializes the PayPal wrapper and validates the credentials.
// The token source is injectable for tests; pass nil to use the OAuth one.
func NewClient(ctx context.Context, cfg config.PayPalConfig, tokens TokenSource, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.Secret)
	if clientID == "" || secret == "" {
		return nil, errCredentialsRequired
	}

	baseURL := baseURLs[env]
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if tokens == nil {
		tokens = NewOAuthTokenSource(httpClient, baseURL, clientID, secret)
	}

	c := &Client{
		httpClient:  httpClient,
		tokens:      tokens,
		environment: env,
		webhookID:   strings.TrimSpace(cfg.WebhookID),
		baseURL:     baseURL,
		logger:      logg,
	}

	logg.Info(ctx, "paypal client initialized")
	return c, nil
}

// Environment reports the normalized PayPal environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// WebhookID returns the configured webhook registration id.
func (c *Client) WebhookID() string {
	if c == nil {
		return ""
	}
	return c.webhookID
}

// CreateOrder creates a deposit order. PayPal-Request-Id makes the call safe
// to retry without minting a second order.
func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*Order, error) {
	if err := params.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "paypal order params")
	}

	c.log(ctx, "request", "create_order", map[string]any{
		"reference_id": params.ReferenceID,
		"amount_cents": params.AmountCents,
		"currency":     params.Currency,
	})

	var order Order
	headers := map[string]string{"PayPal-Request-Id": params.RequestID}
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", headers, params.toRequest(), &order); err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "create order")
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return &order, nil
}

// GetOrder fetches the current state of an order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	c.log(ctx, "request", "get_order", map[string]any{"order_id": orderID})

	var order Order
	if err := c.doJSON(ctx, http.MethodGet, "/v2/checkout/orders/"+orderID, nil, nil, &order); err != nil {
		c.log(ctx, "error", "get_order", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "get order")
	}

	c.log(ctx, "response", "get_order", map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return &order, nil
}

// VerifyWebhookSignature checks one delivery against PayPal's verification
// endpoint. Returns false only when PayPal answers with a non-SUCCESS status;
// transport failures return an error so the caller answers 500 and the
// gateway redelivers.
func (c *Client) VerifyWebhookSignature(ctx context.Context, params WebhookVerifyParams) (bool, error) {
	if c.webhookID == "" {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, errWebhookIDRequired, "verify webhook")
	}
	if err := params.Validate(); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "verify webhook")
	}

	req := verifyWebhookRequest{
		TransmissionID:   params.TransmissionID,
		TransmissionTime: params.TransmissionTime,
		TransmissionSig:  params.TransmissionSig,
		CertURL:          params.CertURL,
		AuthAlgo:         params.AuthAlgo,
		WebhookID:        c.webhookID,
		WebhookEvent:     params.Body,
	}

	c.log(ctx, "request", "verify_webhook", map[string]any{
		"transmission_id": params.TransmissionID,
	})

	var resp verifyWebhookResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", nil, req, &resp); err != nil {
		c.log(ctx, "error", "verify_webhook", map[string]any{"error": err.Error()})
		return false, c.mapError(err, "verify webhook")
	}

	verified := resp.VerificationStatus == verificationSuccess
	c.log(ctx, "response", "verify_webhook", map[string]any{
		"transmission_id": params.TransmissionID,
		"verified":        verified,
	})
	return verified, nil
}

// apiError carries the HTTP status and body of a non-2xx PayPal response.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("paypal api returned %d: %s", e.StatusCode, e.Body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, headers map[string]string, in, out any) error {
	err := c.doJSONOnce(ctx, method, path, headers, in, out)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		// Stale cached token; refresh and retry once.
		c.tokens.Invalidate()
		err = c.doJSONOnce(ctx, method, path, headers, in, out)
	}
	return err
}

func (c *Client) doJSONOnce(ctx context.Context, method, path string, headers map[string]string, in, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("fetching token: %w", err)
	}

	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling paypal: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("paypal %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("paypal %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "phone", "sig"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		code := domainCodeForStatus(apiErr.StatusCode)
		return pkgerrors.Wrap(code, err, fmt.Sprintf("paypal %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("paypal %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidPayPalEnv
	}
}
