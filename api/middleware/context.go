package middleware

import "context"

type contextKey string

const (
	ctxOperatorID    contextKey = "operator_id"
	ctxOperatorEmail contextKey = "operator_email"
)

// OperatorIDFromContext returns the authenticated operator's id, if any.
func OperatorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperatorID).(string); ok {
		return v
	}
	return ""
}

// OperatorEmailFromContext returns the authenticated operator's email, if any.
func OperatorEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperatorEmail).(string); ok {
		return v
	}
	return ""
}

// WithOperator injects the operator identity into the context. Exposed for
// handler tests.
func WithOperator(ctx context.Context, id, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxOperatorID, id)
	return context.WithValue(ctx, ctxOperatorEmail, email)
}
