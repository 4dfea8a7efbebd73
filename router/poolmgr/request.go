package poolmgr

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID scopes ctx to one logical request. Operations sharing a request
// id share shard transactions.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// NewRequestContext starts a new logical request with a random id.
func NewRequestContext(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}
