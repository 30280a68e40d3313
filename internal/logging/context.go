package logging

import "context"

type ctxKey string

const (
	ctxCorrelationID ctxKey = "correlation_id"
	ctxSessionID     ctxKey = "session_id"
	ctxUserID        ctxKey = "user_id"
)

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxCorrelationID, id)
}

func CorrelationID(ctx context.Context) string {
	return value(ctx, ctxCorrelationID)
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxSessionID, id)
}

func SessionID(ctx context.Context) string {
	return value(ctx, ctxSessionID)
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxUserID, id)
}

// UserID is empty for anonymous requests.
func UserID(ctx context.Context) string {
	return value(ctx, ctxUserID)
}

func value(ctx context.Context, k ctxKey) string {
	if v := ctx.Value(k); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
