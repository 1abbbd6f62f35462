package client

import "context"

// SessionReason is the marker a login redirect carries.
type SessionReason string

const (
	// ReasonExpired: the client found the token past its expiration.
	ReasonExpired SessionReason = "expired"
	// ReasonRejected: the server answered 401.
	ReasonRejected SessionReason = "session"
)

// SessionEvent reports that the current session token was removed.
type SessionEvent struct {
	Reason    SessionReason
	Method    string
	Path      string
	RequestID string
}

// Err maps the event to the error category it represents.
func (e SessionEvent) Err() error {
	if e.Reason == ReasonExpired {
		return ErrSessionExpired
	}
	return ErrUnauthorized
}

// SessionListener consumes session-invalidated events. Implementations must
// not call back into the Gateway synchronously.
type SessionListener interface {
	SessionInvalidated(ctx context.Context, ev SessionEvent)
}

type SessionListenerFunc func(ctx context.Context, ev SessionEvent)

func (f SessionListenerFunc) SessionInvalidated(ctx context.Context, ev SessionEvent) {
	f(ctx, ev)
}
