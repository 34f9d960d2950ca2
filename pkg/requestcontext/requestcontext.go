// Package requestcontext carries per-request correlation values through context.
package requestcontext

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{ name string }

var requestIDKey = contextKey{"request_id"}

// WithRequestID returns ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Ensure returns ctx with a request ID, generating one when absent.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := RequestID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}
