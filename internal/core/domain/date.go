package domain

import (
	"fmt"
	"iter"
	"time"
)

// DateLayout is the calendar date format used throughout the pipeline
// and by the upstream document endpoints.
const DateLayout = "2006-01-02"

// Epoch is the earliest sitting date with structured XML records upstream.
// Requests before this date are rejected before any network call.
var Epoch = time.Date(2019, time.July, 2, 0, 0, 0, 0, time.UTC)

// Term describes one parliamentary term. The term number is part of the
// upstream document URL, so a date outside every known term cannot be fetched.
type Term struct {
	// Number is the term ordinal used in document identifiers.
	Number int
	// Start is the first sitting date of the term.
	Start time.Time
	// End is the last sitting date of the term.
	End time.Time
}

// terms lists the parliamentary terms covered by the upstream XML archive.
var terms = []Term{
	{Number: 9, Start: Epoch, End: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)},
	{Number: 10, Start: time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC), End: time.Date(2029, time.July, 1, 0, 0, 0, 0, time.UTC)},
}

// TermForDate returns the parliamentary term covering the given date.
// Returns false if the date falls outside every known term.
func TermForDate(date time.Time) (Term, bool) {
	d := Midnight(date)
	for _, t := range terms {
		if !d.Before(t.Start) && !d.After(t.End) {
			return t, true
		}
	}
	return Term{}, false
}

// Midnight truncates a time to its UTC calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Period is a validated harvest date range. Both bounds are inclusive
// calendar dates. A Period is immutable once constructed.
type Period struct {
	start time.Time
	end   time.Time
}

// NewPeriod validates and constructs a Period.
// Returns ErrInvalidDateRange if start precedes the epoch or end precedes start.
func NewPeriod(start, end time.Time) (Period, error) {
	s, e := Midnight(start), Midnight(end)
	if s.Before(Epoch) {
		return Period{}, fmt.Errorf("%w: start %s is before epoch %s",
			ErrInvalidDateRange, s.Format(DateLayout), Epoch.Format(DateLayout))
	}
	if e.Before(s) {
		return Period{}, fmt.Errorf("%w: end %s is before start %s",
			ErrInvalidDateRange, e.Format(DateLayout), s.Format(DateLayout))
	}
	return Period{start: s, end: e}, nil
}

// ParsePeriod constructs a Period from two YYYY-MM-DD strings.
func ParsePeriod(start, end string) (Period, error) {
	s, err := time.ParseInLocation(DateLayout, start, time.UTC)
	if err != nil {
		return Period{}, fmt.Errorf("%w: start date %q: %v", ErrInvalidDateRange, start, err)
	}
	e, err := time.ParseInLocation(DateLayout, end, time.UTC)
	if err != nil {
		return Period{}, fmt.Errorf("%w: end date %q: %v", ErrInvalidDateRange, end, err)
	}
	return NewPeriod(s, e)
}

// Start returns the inclusive start date.
func (p Period) Start() time.Time { return p.start }

// End returns the inclusive end date.
func (p Period) End() time.Time { return p.end }

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return int(p.end.Sub(p.start).Hours()/24) + 1
}

// Contains reports whether the given date falls within the period.
func (p Period) Contains(date time.Time) bool {
	d := Midnight(date)
	return !d.Before(p.start) && !d.After(p.end)
}

// String renders the period as "start..end".
func (p Period) String() string {
	return p.start.Format(DateLayout) + ".." + p.end.Format(DateLayout)
}

// Dates yields every candidate sitting date in the period in chronological
// order. The sequence is a pure function of the period: it is finite,
// restartable and holds no external state. Whether a given date actually had
// a sitting is only discovered at fetch time.
func (p Period) Dates() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := p.start; !d.After(p.end); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}
