package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
)

// SittingBatch is the complete normalised output for one sitting date.
// The store commits a batch atomically: either every record for the date
// is persisted or none is, so an aborted run never leaves a partial date.
type SittingBatch struct {
	// Date is the sitting date.
	Date time.Time

	// Members lists every canonical member referenced by the batch.
	// Saving an already-known member is an upsert, safe across batches.
	Members []domain.Member

	// Speeches and Votes are the records for the date.
	Speeches []domain.SpeechRecord
	Votes    []domain.VoteRecord
}

// RecordStore persists the normalised corpus for exactly one period.
//
// A store is bound to one output directory. Opening a directory that
// already contains records from a prior run fails with
// domain.ErrDirtyDirectory before anything is written. The persisted
// layout is self-describing: LoadCorpus after a process restart
// reproduces the corpus the run built in memory.
type RecordStore interface {
	// Period returns the period the store was initialised with.
	Period() domain.Period

	// SaveSitting atomically persists one sitting's batch.
	// Safe for concurrent use by multiple date workers; batches are
	// ordered only by arrival.
	SaveSitting(ctx context.Context, batch SittingBatch) error

	// ArchiveRaw stores a fetched XML artifact for provenance.
	// Best effort; an archive failure must not fail the sitting.
	ArchiveRaw(ctx context.Context, raw *domain.RawDocument) error

	// LoadCorpus reconstructs the full corpus from persisted state
	// without re-fetching anything.
	LoadCorpus(ctx context.Context) (*domain.Corpus, error)

	// Close releases the underlying resources.
	Close() error
}
