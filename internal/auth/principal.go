package auth

import (
	"context"

	"commonspace/pkg/model"
)

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Role   model.Role
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
