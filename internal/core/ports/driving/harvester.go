package driving

import (
	"context"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
)

// HarvestStatus is a point-in-time snapshot of a running harvest.
type HarvestStatus struct {
	// Running indicates a harvest is in progress.
	Running bool

	// DatesProcessed is the number of candidate dates completed so far.
	DatesProcessed int

	// Speeches and Votes count records committed so far.
	Speeches int
	Votes    int

	// Failures counts per-date fatal errors so far.
	Failures int
}

// Harvester runs the acquisition-and-normalisation pipeline for one period.
type Harvester interface {
	// Run executes the full pipeline: resolve candidate dates, fetch and
	// parse both document kinds per date, reconcile member identities,
	// optionally translate speeches, and persist per-date batches.
	//
	// Per-date failures are collected in the report, not returned as the
	// error; Run only fails outright on setup problems or cancellation.
	Run(ctx context.Context) (*domain.RunReport, error)

	// Status returns the current progress snapshot.
	Status() HarvestStatus
}
