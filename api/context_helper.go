package api

import (
	"context"
	"time"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

type ctxKey int

const (
	requestIDKey ctxKey = iota
	adminSubjectKey
)

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithRequestID tags ctx with the id of the request it serves
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored by RequestLogger, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withAdminSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, adminSubjectKey, sub)
}

// AdminSubject returns the admin id proven by a bearer token. ok is false when
// the request carried no verified token.
func AdminSubject(ctx context.Context) (sub string, ok bool) {
	sub, ok = ctx.Value(adminSubjectKey).(string)
	return sub, ok
}
