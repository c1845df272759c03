package auth

import "context"

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated account attached to a request context by the
// session and token middleware. Handlers and services read it instead of any
// process-global current-user state.
type Principal struct {
	AccountID int64
}

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the authenticated principal from the context.
// The second return value is false when the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
