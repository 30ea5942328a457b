package httpx

import (
	"context"
	"net/http"
)

type holderKey struct{}

type callerHolder struct {
	caller Caller
}

func withCallerHolder(ctx context.Context, h *callerHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// SetCaller attaches c to the request context and records it for the access log.
func SetCaller(r *http.Request, c Caller) *http.Request {
	if h, ok := r.Context().Value(holderKey{}).(*callerHolder); ok {
		h.caller = c
	}
	return r.WithContext(WithCaller(r.Context(), c))
}
