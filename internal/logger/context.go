package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	serviceKey   ctxKey = "click_service"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithService tags the context with the Click service handling the request.
func WithService(ctx context.Context, service string) context.Context {
	return context.WithValue(ctx, serviceKey, service)
}

func ServiceFrom(ctx context.Context) string {
	if v, ok := ctx.Value(serviceKey).(string); ok {
		return v
	}
	return ""
}

// FromCtx returns logger with request_id and service automatically added
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if svc := ServiceFrom(ctx); svc != "" {
		l = l.With(zap.String("service", svc))
	}
	return l
}
