// Package auth is the identity provider behind the backend gateway: Google
// OAuth2 consent sign-in, server-side sessions and a per-session auth-state
// subscription.
package auth

import "context"

// Identity is an authenticated user.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity carried by ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
