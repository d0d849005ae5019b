package graph

import "context"

type userKey struct{}

// WithUser attaches the conversation's user identifier to the context so
// tool executions can resolve per-user resources like notebook ownership.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the user identifier attached by WithUser, or "".
func UserFrom(ctx context.Context) string {
	if v, ok := ctx.Value(userKey{}).(string); ok {
		return v
	}
	return ""
}
