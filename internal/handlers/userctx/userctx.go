// Package userctx carries the authenticated user through a request context.
package userctx

import (
	"context"

	"walletcore/internal/models"
)

type ctxKey struct{}

// New returns ctx with the user attached
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext reports the user the auth middleware resolved, if any
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(models.User)
	return u, ok
}
