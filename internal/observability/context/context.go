package context

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	tenderIDKey
)

// WithRequestID stores the inbound request identifier.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithTenderID stores the tender being analyzed so downstream logs carry it.
func WithTenderID(ctx context.Context, tenderID string) context.Context {
	return context.WithValue(ctx, tenderIDKey, tenderID)
}

// TenderIDFromContext returns the tender identifier or an empty string.
func TenderIDFromContext(ctx context.Context) string {
	return stringValue(ctx, tenderIDKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
