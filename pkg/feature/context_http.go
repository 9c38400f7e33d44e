package feature

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/flagsync/pkg/clientip"
)

type contextKey struct{}

// WithContext stores an evaluation context in ctx.
func WithContext(ctx context.Context, fc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, fc)
}

// FromContext returns the evaluation context stored in ctx.
func FromContext(ctx context.Context) (Context, bool) {
	fc, ok := ctx.Value(contextKey{}).(Context)
	return fc, ok
}

// RequestEnricher fills request specific fields, such as the user or session id,
// into an evaluation context.
type RequestEnricher func(r *http.Request, fc *Context)

// ContextFromRequest builds an evaluation context for r on top of base.
// The remote address is resolved from proxy headers and the peer address.
func ContextFromRequest(r *http.Request, base Context, enrich ...RequestEnricher) Context {
	fc := base
	if fc.Properties != nil {
		fc = Context{}.Merge(base)
	}
	if ip := clientip.GetIP(r); ip != "" {
		fc.RemoteAddress = ip
	}
	for _, fn := range enrich {
		if fn != nil {
			fn(r, &fc)
		}
	}
	return fc
}

// Middleware stores the evaluation context of every request in the request context.
func Middleware(base Context, enrich ...RequestEnricher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fc := ContextFromRequest(r, base, enrich...)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), fc)))
		})
	}
}
