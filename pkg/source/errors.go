package source

import (
	"errors"
	"fmt"
	"net/http"
)

// Probe failures. All of these are fatal, a target that cannot be described
// cannot be fetched.
var (
	ErrNotFound     = errors.New("object not found")
	ErrAccessDenied = errors.New("access denied")
	// ErrUnsupported covers origins that cannot state an object size up front.
	ErrUnsupported = errors.New("origin cannot size the object")
)

// Fetch failure classes. Transient failures are worth retrying, permanent
// failures abort the transfer immediately.
var (
	ErrTransient = errors.New("transient failure")
	ErrPermanent = errors.New("permanent failure")
)

// Transient marks err as worth retrying.
func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Permanent marks err as fatal.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsTransient reports whether err carries the transient classification. Anything
// else, including unclassified errors such as context cancellation, is treated
// as not retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// HTTPStatusError indicates an unexpected response status.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
}

// classifyStatus sorts an unexpected response status into the retry taxonomy.
// Server-side trouble and throttling are worth retrying, everything else is not.
func classifyStatus(statusCode int) error {
	err := &HTTPStatusError{StatusCode: statusCode}
	if statusCode >= 500 || statusCode == http.StatusTooManyRequests || statusCode == http.StatusRequestTimeout {
		return Transient(err)
	}
	return Permanent(err)
}
