package shared

import (
	"context"

	"github.com/invoicepro/invoicepro/internal/platform/httpx"
)

type userContextKey struct{}

// ContextWithUser stores the authenticated user id in context.
func ContextWithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userContextKey{}, userID)
}

// UserFromContext extracts the authenticated user id.
func UserFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userContextKey{}).(int64)
	return id, ok && id > 0
}

// RequireUser is UserFromContext returning httpx.ErrUnauthorized when absent.
func RequireUser(ctx context.Context) (int64, error) {
	id, ok := UserFromContext(ctx)
	if !ok {
		return 0, httpx.ErrUnauthorized
	}
	return id, nil
}
