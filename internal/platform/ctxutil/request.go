// Package ctxutil carries per-request identifiers through context.Context.
package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestKey struct{}

// Request is the scope one HTTP request runs under. Middleware fills it in as the request
// passes through, so it is stored by pointer.
type Request struct {
	RequestID string
	TraceID   string
	OwnerID   uuid.UUID
}

func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// FromContext returns nil outside a request.
func FromContext(ctx context.Context) *Request {
	r, _ := ctx.Value(requestKey{}).(*Request)
	return r
}

// Ensure returns the request scope on ctx, attaching an empty one when there is none.
func Ensure(ctx context.Context) (context.Context, *Request) {
	if r := FromContext(ctx); r != nil {
		return ctx, r
	}
	r := &Request{}
	return WithRequest(ctx, r), r
}

// OwnerID returns the request owner or uuid.Nil.
func OwnerID(ctx context.Context) uuid.UUID {
	if r := FromContext(ctx); r != nil {
		return r.OwnerID
	}
	return uuid.Nil
}

// RequestID returns "" outside a request.
func RequestID(ctx context.Context) string {
	if r := FromContext(ctx); r != nil {
		return r.RequestID
	}
	return ""
}
