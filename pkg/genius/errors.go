package genius

import (
	"fmt"
	"net/http"
)

// Error represents a non-200 response from the Genius API.
type Error struct {
	StatusCode int    // HTTP status code
	Message    string // Status text
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("genius: error %d: %s", e.StatusCode, e.Message)
}

// Temporary returns true if the error is worth retrying: server errors
// and rate limiting.
func (e *Error) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Predefined errors for common cases.
var (
	// ErrNoToken is returned by NewClient when no API token is configured.
	ErrNoToken = fmt.Errorf("genius: API token is required")

	// ErrNoMatch is returned when no search hit matches the artist and
	// title exactly (case-insensitive).
	ErrNoMatch = fmt.Errorf("genius: no matching song found")
)
