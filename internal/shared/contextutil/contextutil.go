package contextutil

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	principalKey contextKey = "principal"
	loggerKey    contextKey = "logger"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Principal is the authenticated caller as seen by the service layer.
type Principal struct {
	ID   string
	Role string
}

func (p Principal) IsZero() bool {
	return p.ID == "" && p.Role == ""
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

func GetRequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey).(string); ok {
		return rid
	}
	return ""
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && !p.IsZero()
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger returns the request logger, the fallback, or a no-op logger. Never nil.
func GetLogger(ctx context.Context, defaultLogger *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
			return l
		}
	}

	if defaultLogger != nil {
		return defaultLogger
	}

	return zap.NewNop()
}

type Metadata struct {
	RequestID   string
	PrincipalID string
}

func ExtractMetadata(ctx context.Context) Metadata {
	p, _ := GetPrincipal(ctx)
	return Metadata{
		RequestID:   GetRequestID(ctx),
		PrincipalID: p.ID,
	}
}
