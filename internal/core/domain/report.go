package domain

import (
	"fmt"
	"time"
)

// WarningKind classifies non-fatal conditions collected during a run.
type WarningKind string

const (
	// WarnParse marks a single malformed fragment skipped by a parser.
	WarnParse WarningKind = "parse"

	// WarnIdentity marks two distinct upstream identities normalising to
	// the same token. The members are kept separate; resolution requires
	// an alias table entry.
	WarnIdentity WarningKind = "identity"

	// WarnTranslate marks a failed translation; the record keeps its
	// original text only.
	WarnTranslate WarningKind = "translate"

	// WarnArchive marks a raw document that could not be archived. The
	// document is still parsed; only the provenance copy is missing.
	WarnArchive WarningKind = "archive"
)

// Warning is one non-fatal condition observed during a run. Warnings are
// aggregated and reported at the end of the run; nothing is dropped silently.
type Warning struct {
	// Kind classifies the warning.
	Kind WarningKind

	// Date is the sitting date the warning relates to, if any.
	Date time.Time

	// Detail is the human-readable description.
	Detail string
}

func (w Warning) String() string {
	if w.Date.IsZero() {
		return fmt.Sprintf("[%s] %s", w.Kind, w.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Date.Format(DateLayout), w.Detail)
}

// DateFailure records a per-date fatal error (fetch exhaustion or a fully
// unparsable document). One bad date never aborts the rest of the range,
// but every failure is reported so the user knows which dates are incomplete.
type DateFailure struct {
	// Date is the affected sitting date.
	Date time.Time

	// Kind is the affected document kind.
	Kind DocumentKind

	// Err is the underlying failure.
	Err error
}

func (f DateFailure) String() string {
	return fmt.Sprintf("%s (%s): %v", f.Date.Format(DateLayout), f.Kind, f.Err)
}

// RunReport is the final accounting of one harvest run.
type RunReport struct {
	// Period is the harvested range.
	Period Period

	// DatesScanned is the number of candidate dates queried.
	DatesScanned int

	// Sittings is the number of dates that had at least one document.
	Sittings int

	// Speeches and Votes count the persisted records.
	Speeches int
	Votes    int

	// Translated counts speeches that received an English translation.
	Translated int

	// Failures lists per-date fatal errors.
	Failures []DateFailure

	// Warnings lists all non-fatal conditions.
	Warnings []Warning
}

// Clean reports whether the run completed without failures or warnings.
func (r *RunReport) Clean() bool {
	return len(r.Failures) == 0 && len(r.Warnings) == 0
}
