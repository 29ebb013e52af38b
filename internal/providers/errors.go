package providers

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an extraction failure for retry and fallback decisions.
type Kind string

const (
	// KindTransient failures (rate limits, server errors, timeouts) are
	// retried on the same backend.
	KindTransient Kind = "transient"

	// KindInvalidResponse means the model answered but the answer did not
	// parse or validate. The caller moves to the next backend in the chain.
	KindInvalidResponse Kind = "invalid_response"

	// KindFatal failures (auth, bad request) are not retried on this
	// backend at all.
	KindFatal Kind = "fatal"
)

// Error is a classified backend failure.
type Error struct {
	Kind    Kind
	Backend string
	Status  int // HTTP status when one was received
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Kind, e.Err)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	if e.Backend != "" {
		return e.Backend + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying on the same backend.
func IsTransient(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == KindTransient
	}
	return false
}

// IsInvalidResponse reports whether the model responded with output that
// failed parsing or schema validation.
func IsInvalidResponse(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == KindInvalidResponse
	}
	return false
}

// IsFatal reports whether err rules out further attempts on its backend.
func IsFatal(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == KindFatal
	}
	return false
}

// classifyStatus maps an HTTP status code to an error kind. Rate limits
// and server errors are retryable; other client errors are not. A zero
// status means the request never completed, which is also retryable.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindTransient
	case status >= 500:
		return KindTransient
	case status >= 400:
		return KindFatal
	default:
		return KindTransient
	}
}
