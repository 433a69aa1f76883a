// Package auth resolves the caller identity of a request.
//
// Identity comes from the external auth provider (Supabase-style JWTs) or,
// for local use, from a static token mapped to a configured user id.
// Requests without credentials are passed through anonymously so that
// each operation can decide whether an identity is required.
package auth

import "context"

type contextKey struct{}

// WithUserID returns a copy of ctx carrying the caller's user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFromContext returns the caller's user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}
