package shelltypes

import "context"

// RefreshOptions are the per-call settings of a re-authentication attempt.
// They travel with the call and are never stored on the session.
type RefreshOptions struct {
	// SilentOnly forbids interactive prompts; a provider that would need one
	// fails with an interaction-required error instead.
	SilentOnly bool
}

// Reauthenticator performs a single authentication attempt for a strategy.
type Reauthenticator interface {
	RefreshAuth(ctx context.Context, authType AuthType, opts RefreshOptions) error
}
