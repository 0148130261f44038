// Package auth resolves who is calling: API key hashing and parsing,
// session tokens, Google login, and the request principal.
package auth

import (
	"context"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

type contextKey string

const principalKey contextKey = "principal"

// ContextWithPrincipal adds the authenticated principal to ctx.
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal, or nil when unauthenticated.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(principalKey).(*model.Principal)
	return p
}

// UserIDFromContext returns the authenticated user id, or 0.
func UserIDFromContext(ctx context.Context) int64 {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return 0
}
