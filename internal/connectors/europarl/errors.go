package europarl

import (
	"errors"
	"fmt"
)

// Archive-specific errors.
var (
	// ErrNoTerm indicates the date falls outside every known parliamentary
	// term, so no document URL can be built for it.
	ErrNoTerm = errors.New("europarl: no parliamentary term covers date")

	// errNoSitting is the internal marker for a definitive 404: no sitting,
	// or no roll-call vote session, on the requested date.
	errNoSitting = errors.New("europarl: no document for date")
)

// APIError represents an unexpected HTTP response from the archive.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("europarl: HTTP %d from %s", e.StatusCode, e.URL)
}

// Transient reports whether the response status is worth retrying.
// Server-side errors and throttling responses are transient; everything
// else is definitive.
func (e *APIError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsNotFound checks if the error marks a date without a document.
func IsNotFound(err error) bool {
	return errors.Is(err, errNoSitting)
}
