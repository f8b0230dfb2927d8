// Package memory provides an in-memory record store. Nothing survives the
// process; it backs dry runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
)

// Store is an in-memory implementation of driven.RecordStore.
type Store struct {
	mu      sync.RWMutex
	period  domain.Period
	members map[string]domain.Member
	batches []driven.SittingBatch
	raw     []*domain.RawDocument
	closed  bool
}

var _ driven.RecordStore = (*Store)(nil)

// NewStore creates an empty store for the given period.
func NewStore(period domain.Period) *Store {
	return &Store{
		period:  period,
		members: make(map[string]domain.Member),
	}
}

// Period returns the period the store was initialised with.
func (s *Store) Period() domain.Period {
	return s.period
}

// SaveSitting records one sitting's batch.
func (s *Store) SaveSitting(_ context.Context, batch driven.SittingBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	for _, m := range batch.Members {
		s.members[m.Key] = m
	}
	s.batches = append(s.batches, batch)
	return nil
}

// ArchiveRaw keeps the raw document in memory.
func (s *Store) ArchiveRaw(_ context.Context, raw *domain.RawDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	if raw == nil || !raw.Kind.Valid() {
		return domain.ErrInvalidInput
	}
	s.raw = append(s.raw, raw)
	return nil
}

// LoadCorpus assembles the corpus from the saved batches, ordered by date
// then sequence to match the persistent store.
func (s *Store) LoadCorpus(_ context.Context) (*domain.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	corpus := &domain.Corpus{
		Period:  s.period,
		Members: make(map[string]domain.Member, len(s.members)),
	}
	for key, m := range s.members {
		corpus.Members[key] = m
	}
	for _, batch := range s.batches {
		corpus.Speeches = append(corpus.Speeches, batch.Speeches...)
		corpus.Votes = append(corpus.Votes, batch.Votes...)
	}

	sort.Slice(corpus.Speeches, func(i, j int) bool {
		a, b := corpus.Speeches[i], corpus.Speeches[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Sequence < b.Sequence
	})
	sort.Slice(corpus.Votes, func(i, j int) bool {
		a, b := corpus.Votes[i], corpus.Votes[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.BallotID != b.BallotID {
			return a.BallotID < b.BallotID
		}
		return a.ID < b.ID
	})

	return corpus, nil
}

// RawDocuments returns the archived documents, for inspection in tests.
func (s *Store) RawDocuments() []*domain.RawDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.RawDocument, len(s.raw))
	copy(out, s.raw)
	return out
}

// Close marks the store closed; further operations fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
