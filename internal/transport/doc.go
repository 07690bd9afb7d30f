// Package transport provides the retrying HTTP client every remote call
// in the deploy pipeline goes through.
//
// # Retry Policy
//
// Outcomes are classified before any retry decision:
//
//   - 2xx/3xx: success, returned to the caller
//   - 4xx: client error, returned immediately without retry
//   - 5xx, connection failures, DNS failures, timeouts: retryable
//
// Retryable failures are attempted up to 3 times per logical call with a
// linearly increasing delay (attempt number x 3s). Each call gets a fresh
// attempt budget; no state is shared between calls. When the budget is
// exhausted, a *RetryExhaustedError wrapping the last classified *Error
// is returned, so errors.As can recover the original failure kind.
//
// Every attempt carries a 15 second timeout and a JSON content type.
package transport
