package auth

import (
	"context"
	"errors"
	"fmt"

	"aishell/internal/logger"
	"aishell/pkg/shelltypes"
)

// InteractionRequired is the sentinel message of OutcomeInteractionRequired.
const InteractionRequired = "INTERACTION_REQUIRED"

// OutcomeKind discriminates the result of PerformInitialAuth.
type OutcomeKind int

const (
	// OutcomeSuccess means the session is authenticated (or no strategy was selected).
	OutcomeSuccess OutcomeKind = iota
	// OutcomeInteractionRequired means silent login could not complete without a prompt.
	OutcomeInteractionRequired
	// OutcomeCancelled means the user or environment aborted the flow.
	OutcomeCancelled
	// OutcomeFailed means any other error; Message holds the cause.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeInteractionRequired:
		return "interaction_required"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the tagged result of an authentication attempt.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// ErrorMessage collapses the outcome into the legacy string surface:
// nil for success, InteractionRequired, "" for cancellation, or the failure text.
func (o Outcome) ErrorMessage() *string {
	if o.Kind == OutcomeSuccess {
		return nil
	}
	msg := o.Message
	return &msg
}

// Options configures PerformInitialAuth.
type Options struct {
	// SilentOnly forbids interactive login flows.
	SilentOnly bool
}

// PerformInitialAuth runs the initial authentication for authType and classifies the result.
// An empty authType is a no-op success. Exactly one refresh attempt is made; the silent
// flag is passed with the call and never stored on shared state.
func PerformInitialAuth(ctx context.Context, refresher shelltypes.Reauthenticator, authType shelltypes.AuthType, opts Options) (outcome Outcome) {
	if authType == "" {
		return Outcome{Kind: OutcomeSuccess}
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = failed(fmt.Errorf("%v", r))
		}
		logger.Debug("Initial auth finished", "auth_type", authType, "silent", opts.SilentOnly, "outcome", outcome.Kind)
	}()

	err := refresher.RefreshAuth(ctx, authType, shelltypes.RefreshOptions{SilentOnly: opts.SilentOnly})
	if err == nil {
		return Outcome{Kind: OutcomeSuccess}
	}
	return classify(err, opts.SilentOnly)
}

func classify(err error, silentOnly bool) Outcome {
	if silentOnly && errors.Is(err, ErrInteractionRequired) {
		return Outcome{Kind: OutcomeInteractionRequired, Message: InteractionRequired}
	}

	var cancelled *FatalCancellationError
	if errors.As(err, &cancelled) {
		return Outcome{Kind: OutcomeCancelled, Message: ""}
	}

	return failed(err)
}

func failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Message: fmt.Sprintf("Failed to login. Message: %s", err.Error())}
}
