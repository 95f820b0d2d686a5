package api

import (
	"context"

	"github.com/innovacall/review-portal/internal/models"
)

type contextKey string

const callerContextKey contextKey = "api_caller"

// CallerFromContext extracts the authenticated Caller from context
func CallerFromContext(ctx context.Context) *models.Caller {
	caller, ok := ctx.Value(callerContextKey).(*models.Caller)
	if !ok {
		return nil
	}
	return caller
}

// ContextWithCaller adds a Caller to context
func ContextWithCaller(ctx context.Context, caller *models.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}
