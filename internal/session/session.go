// Package session carries the authenticated session through request contexts
// and remembers revoked access tokens until they would have expired anyway.
package session

import (
	"context"
	"time"

	"lab-maintenance-backend/internal/access"
)

// Session is the server-side view of one access token.
type Session struct {
	Actor                 access.Actor
	TokenID               string
	ExpiresAt             time.Time
	NeedsCredentialUpdate bool
}

// Remaining is the time left before the session lapses.
func (s *Session) Remaining() time.Duration {
	return time.Until(s.ExpiresAt)
}

type ctxKey struct{}

// WithSession attaches s to ctx and bounds ctx by the token expiry.
func WithSession(ctx context.Context, s *Session) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, ctxKey{}, s)
	if s.ExpiresAt.IsZero() {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, s.ExpiresAt)
}

// FromContext returns the session attached by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
