// Package auth issues and validates access tokens and carries the
// authenticated identity through a request context.
package auth

import (
	"context"
	"fmt"
	"time"
)

// Identity is the authenticated caller as decoded from a valid token.
type Identity struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type identityKey struct{}

// WithIdentity returns a child context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext reports the identity stored by WithIdentity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// GetUser returns the authenticated identity. It panics when the guard has
// not run for this request: a protected route is missing its middleware.
func GetUser(ctx context.Context) Identity {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		panic("auth: no identity in context; route is not behind the guard")
	}
	return id
}

// GetUserField returns one field of the authenticated identity.
// Known fields: "id" (alias "sub"), "email", "iat", "exp".
func GetUserField(ctx context.Context, field string) any {
	id := GetUser(ctx)
	switch field {
	case "id", "sub":
		return id.UserID
	case "email":
		return id.Email
	case "iat":
		return id.IssuedAt
	case "exp":
		return id.ExpiresAt
	default:
		panic(fmt.Sprintf("auth: unknown identity field %q", field))
	}
}
