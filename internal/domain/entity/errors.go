package entity

import "errors"

var (
	// ErrTransport marks a whole-batch failure: network unreachable, timeout or a
	// malformed response envelope. The invocation that hit it may be retried.
	ErrTransport = errors.New("transport failure")

	// ErrInvariant marks a schema or data mismatch that retrying cannot fix.
	ErrInvariant = errors.New("invariant violation")
)

// IsRetryable reports whether err is a transport failure that a scheduler should retry.
// Invariant violations are never retryable even when wrapped together with a transport error.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrInvariant) {
		return false
	}
	return errors.Is(err, ErrTransport)
}
