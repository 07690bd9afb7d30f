// ABOUTME: Error classification for transport failures
// ABOUTME: Defines the retryable/terminal kinds and the retry-exhausted wrapper

package transport

import "fmt"

// Kind classifies a transport failure.
type Kind int

const (
	// KindConnection covers refused/reset connections and DNS failures.
	KindConnection Kind = iota

	// KindTimeout covers per-attempt deadline expiry.
	KindTimeout

	// KindServer covers 5xx responses.
	KindServer

	// KindClient covers 4xx responses. Never retried.
	KindClient
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	default:
		return "unknown"
	}
}

// Error is a classified transport failure for a single attempt.
type Error struct {
	Kind   Kind
	Status int    // HTTP status for server/client kinds, 0 otherwise
	Body   string // trimmed response body for server/client kinds
	Err    error  // underlying error for connection/timeout kinds
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer, KindClient:
		if e.Body != "" {
			return fmt.Sprintf("%s error: status %d: %s", e.Kind, e.Status, e.Body)
		}
		return fmt.Sprintf("%s error: status %d", e.Kind, e.Status)
	default:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could change the outcome.
func (e *Error) Retryable() bool {
	return e.Kind != KindClient
}

// RetryExhaustedError is returned when the attempt ceiling is reached.
// It preserves the last classified error so callers can still present
// an accurate message (timeout vs connection vs server error).
type RetryExhaustedError struct {
	Attempts int
	Last     *Error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}
