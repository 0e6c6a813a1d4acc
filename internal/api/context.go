package api

import (
	"context"

	"github.com/ktane-tracker/tracker/internal/models"
)

type contextKey string

const userContextKey contextKey = "api_user"

// UserFromContext extracts the identified user from context; nil for anonymous requests
func UserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// ContextWithUser adds the identified user to context
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
