package session

import "context"

type contextKey struct{}

// WithService attaches svc to ctx so views and the route guard share it
func WithService(ctx context.Context, svc *Service) context.Context {
	return context.WithValue(ctx, contextKey{}, svc)
}

// FromContext returns the service attached to ctx, if any
func FromContext(ctx context.Context) (*Service, bool) {
	if ctx == nil {
		return nil, false
	}
	svc, ok := ctx.Value(contextKey{}).(*Service)
	return svc, ok && svc != nil
}

// MustFromContext returns the service attached to ctx. A missing service is a
// wiring mistake, so it panics instead of falling back to an anonymous session.
func MustFromContext(ctx context.Context) *Service {
	svc, ok := FromContext(ctx)
	if !ok {
		panic("session: Service must be attached to the context with session.WithService")
	}
	return svc
}
