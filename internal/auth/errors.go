// Package auth implements startup authentication for aishell: the orchestrator that
// classifies a login attempt into a caller-visible outcome, the Google-backed
// re-authentication provider, and the OAuth request client used for cloud fetches.
package auth

import (
	"errors"
	"fmt"
)

// ErrInteractionRequired is returned by a provider running in silent mode when
// only an interactive login could succeed.
var ErrInteractionRequired = errors.New("interactive login required")

// FatalCancellationError reports that the user or environment aborted the login flow.
type FatalCancellationError struct {
	Reason string
}

func (e *FatalCancellationError) Error() string {
	if e.Reason == "" {
		return "authentication cancelled"
	}
	return "authentication cancelled: " + e.Reason
}

// RequestError is returned by RequestClient for failed requests.
// Code carries a top-level status (set by token and transport layers), while
// ResponseStatus carries the HTTP status of a response that was received.
type RequestError struct {
	Code           int
	ResponseStatus int
	Message        string
	Err            error
}

func (e *RequestError) Error() string {
	status := e.ResponseStatus
	if status == 0 {
		status = e.Code
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if status == 0 {
		return fmt.Sprintf("request failed: %s", msg)
	}
	if msg == "" {
		return fmt.Sprintf("request failed with status %d", status)
	}
	return fmt.Sprintf("request failed with status %d: %s", status, msg)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// HasStatus reports whether either status field equals status.
func (e *RequestError) HasStatus(status int) bool {
	return e.Code == status || e.ResponseStatus == status
}
