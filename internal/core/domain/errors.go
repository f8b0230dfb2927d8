package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDateRange indicates the requested period violates the
	// epoch or ordering constraint. Surfaced before any network call.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrDirtyDirectory indicates the output directory already holds
	// records from a prior run. Checked before any write; a fresh
	// directory is required per period.
	ErrDirtyDirectory = errors.New("output directory already contains harvested records")

	// ErrTranslatorDisabled indicates translation was not enabled for
	// this run. Records keep only their original text.
	ErrTranslatorDisabled = errors.New("translator disabled")

	// ErrStoreClosed indicates the record store has been closed.
	ErrStoreClosed = errors.New("record store closed")
)

// FetchError reports that retrieval of one document failed after retry
// exhaustion. It is fatal for that date and kind only; other dates continue
// and the failure is surfaced in the run report, never silently skipped.
type FetchError struct {
	Date time.Time
	Kind DocumentKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s document for %s: %v", e.Kind, e.Date.Format(DateLayout), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedDocumentError reports that a fetched document was not parseable
// at all: invalid XML, or missing the root structure expected for its kind.
// Fatal for that date and kind; the other kind for the same date is
// unaffected.
type MalformedDocumentError struct {
	Date time.Time
	Kind DocumentKind
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed %s document for %s: %v", e.Kind, e.Date.Format(DateLayout), e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// IsMalformed reports whether the error is a MalformedDocumentError.
func IsMalformed(err error) bool {
	var m *MalformedDocumentError
	return errors.As(err, &m)
}
