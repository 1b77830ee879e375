// Package identity provides context helpers for the acting user of an
// operation. Request handlers set it from the session; background jobs set it
// explicitly to the owner of the record they operate on, so downstream calls
// that assume an acting-user context behave the same in both paths.
package identity

import (
	"context"
	"fmt"
)

type contextKey string

const userIDKey contextKey = "identity.user_id"

// WithUserID returns a context carrying the acting user's ID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the acting user's ID from the context.
// Returns 0 and false when no identity has been established.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// RequireUserID extracts the acting user's ID and returns an error if absent.
// Use this when the operation cannot proceed anonymously.
func RequireUserID(ctx context.Context) (int64, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
