package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driving"
	"github.com/custodia-labs/plenara-cli/internal/logger"
)

// Ensure Harvester implements the interface.
var _ driving.Harvester = (*Harvester)(nil)

// DefaultWorkers is the default size of the per-date worker pool.
const DefaultWorkers = 4

// HarvesterConfig wires a Harvester.
type HarvesterConfig struct {
	// Period is the validated harvest range.
	Period domain.Period

	// Fetcher retrieves raw documents.
	Fetcher driven.Fetcher

	// Speeches and Votes normalise the two document kinds.
	Speeches driven.Normaliser
	Votes    driven.Normaliser

	// Translator is the optional translation capability.
	Translator driven.Translator

	// Store persists per-sitting batches.
	Store driven.RecordStore

	// Identities is the run-scoped member registry.
	Identities *IdentityResolver

	// Workers bounds the number of concurrent date workers
	// (default: DefaultWorkers).
	Workers int
}

// Harvester runs the acquisition-and-normalisation pipeline for one
// period. Fetch-and-parse work for distinct sitting dates is independent
// and runs on a bounded worker pool; the identity registry and run report
// are the only shared state and both serialise their writes.
type Harvester struct {
	period     domain.Period
	fetcher    driven.Fetcher
	speeches   driven.Normaliser
	votes      driven.Normaliser
	translator driven.Translator
	store      driven.RecordStore
	identities *IdentityResolver
	workers    int

	mu     sync.Mutex
	status driving.HarvestStatus
	report domain.RunReport
}

// NewHarvester creates a harvester for one run.
func NewHarvester(cfg HarvesterConfig) *Harvester {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	identities := cfg.Identities
	if identities == nil {
		identities = NewIdentityResolver(nil)
	}
	return &Harvester{
		period:     cfg.Period,
		fetcher:    cfg.Fetcher,
		speeches:   cfg.Speeches,
		votes:      cfg.Votes,
		translator: cfg.Translator,
		store:      cfg.Store,
		identities: identities,
		workers:    workers,
		report:     domain.RunReport{Period: cfg.Period},
	}
}

// Status returns the current progress snapshot.
func (h *Harvester) Status() driving.HarvestStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Run executes the pipeline over every candidate date in the period.
// Per-date failures land in the report; Run itself only fails on
// cancellation. The returned report always reflects the work done so far.
func (h *Harvester) Run(ctx context.Context) (*domain.RunReport, error) {
	h.mu.Lock()
	h.status = driving.HarvestStatus{Running: true}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.status.Running = false
		h.mu.Unlock()
	}()

	logger.Info("Harvesting %s with %d workers", h.period, h.workers)

	dates := make(chan time.Time)
	var wg sync.WaitGroup
	for i := 0; i < h.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for date := range dates {
				h.processDate(ctx, date)
			}
		}()
	}

feed:
	for date := range h.period.Dates() {
		select {
		case <-ctx.Done():
			break feed
		case dates <- date:
		}
	}
	close(dates)
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, w := range h.identities.Warnings() {
		h.report.Warnings = append(h.report.Warnings, w)
	}

	if err := ctx.Err(); err != nil {
		report := h.report
		return &report, err
	}

	logger.Info("Harvest complete: %d sittings, %d speeches, %d votes, %d failures",
		h.report.Sittings, h.report.Speeches, h.report.Votes, len(h.report.Failures))
	report := h.report
	return &report, nil
}

// processDate runs the full pipeline for one candidate date. The two
// document kinds are handled independently: a failure on one never
// discards records extracted from the other. The sitting is committed in
// a single batch, so cancellation mid-date leaves nothing behind.
func (h *Harvester) processDate(ctx context.Context, date time.Time) {
	dateStr := date.Format(domain.DateLayout)
	logger.Debug("Processing %s", dateStr)

	batch := driven.SittingBatch{Date: date}
	sawDocument := false

	speeches, err := h.fetchAndParse(ctx, date, domain.KindSpeech, h.speeches)
	switch {
	case err != nil:
		h.addFailure(date, domain.KindSpeech, err)
	case speeches != nil:
		sawDocument = true
		batch.Speeches = h.buildSpeeches(ctx, date, speeches.Speeches)
	}

	votes, err := h.fetchAndParse(ctx, date, domain.KindVote, h.votes)
	switch {
	case err != nil:
		h.addFailure(date, domain.KindVote, err)
	case votes != nil:
		sawDocument = true
		batch.Votes = h.buildVotes(date, votes.Votes)
	}

	if ctx.Err() != nil {
		// Aborted mid-date: commit nothing for this date.
		return
	}

	if len(batch.Speeches) > 0 || len(batch.Votes) > 0 {
		batch.Members = h.batchMembers(&batch)
		if err := h.store.SaveSitting(ctx, batch); err != nil {
			if len(batch.Speeches) > 0 {
				h.addFailure(date, domain.KindSpeech, fmt.Errorf("save sitting: %w", err))
			}
			if len(batch.Votes) > 0 {
				h.addFailure(date, domain.KindVote, fmt.Errorf("save sitting: %w", err))
			}
			return
		}
	}

	h.mu.Lock()
	h.status.DatesProcessed++
	h.status.Speeches += len(batch.Speeches)
	h.status.Votes += len(batch.Votes)
	h.report.DatesScanned++
	if sawDocument {
		h.report.Sittings++
	}
	h.report.Speeches += len(batch.Speeches)
	h.report.Votes += len(batch.Votes)
	h.mu.Unlock()
}

// fetchAndParse retrieves and normalises one document. A nil result with
// nil error means no document exists for the date (no sitting, or no
// roll-call session). Parse warnings go straight to the report.
func (h *Harvester) fetchAndParse(
	ctx context.Context,
	date time.Time,
	kind domain.DocumentKind,
	normaliser driven.Normaliser,
) (*driven.NormaliseResult, error) {
	raw, err := h.fetcher.Fetch(ctx, date, kind)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	if err := h.store.ArchiveRaw(ctx, raw); err != nil {
		logger.Warn("Archive %s %s: %v", kind, date.Format(domain.DateLayout), err)
		h.addWarning(domain.Warning{
			Kind:   domain.WarnArchive,
			Date:   date,
			Detail: fmt.Sprintf("%s document not archived: %v", kind, err),
		})
	}

	result, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}

	if len(result.Warnings) > 0 {
		h.mu.Lock()
		h.report.Warnings = append(h.report.Warnings, result.Warnings...)
		h.mu.Unlock()
	}
	return result, nil
}

// buildSpeeches resolves identities and (optionally) translates.
// Translation happens after identity resolution so the slow network call
// never runs under the registry lock.
func (h *Harvester) buildSpeeches(ctx context.Context, date time.Time, raws []driven.RawSpeech) []domain.SpeechRecord {
	records := make([]domain.SpeechRecord, 0, len(raws))
	for _, rs := range raws {
		member := h.identities.Resolve(rs.SpeakerID, rs.SpeakerName, rs.Party)
		if member.Key == "" {
			continue
		}

		rec := domain.SpeechRecord{
			ID:              uuid.New().String(),
			Date:            date,
			MemberKey:       member.Key,
			Sequence:        rs.Sequence,
			Topic:           rs.Topic,
			TimeStart:       rs.TimeStart,
			TimeEnd:         rs.TimeEnd,
			DurationSeconds: rs.DurationSeconds,
			SpeakerRole:     rs.Role,
			OriginalText:    rs.Text,
		}

		if h.translator != nil && h.translator.Enabled() {
			translated, err := h.translator.Translate(ctx, rs.Text)
			if err != nil {
				h.addWarning(domain.Warning{
					Kind:   domain.WarnTranslate,
					Date:   date,
					Detail: fmt.Sprintf("speech %d by %s: %v", rs.Sequence, member.DisplayName, err),
				})
			} else {
				rec.TranslatedText = &translated
				h.mu.Lock()
				h.report.Translated++
				h.mu.Unlock()
			}
		}

		records = append(records, rec)
	}
	return records
}

// buildVotes resolves identities for ballot entries.
func (h *Harvester) buildVotes(date time.Time, raws []driven.RawBallotVote) []domain.VoteRecord {
	records := make([]domain.VoteRecord, 0, len(raws))
	for _, rv := range raws {
		member := h.identities.Resolve(rv.MemberID, rv.MemberName, rv.Group)
		if member.Key == "" {
			continue
		}
		records = append(records, domain.VoteRecord{
			ID:          uuid.New().String(),
			Date:        date,
			BallotID:    rv.BallotID,
			Description: rv.Description,
			MemberKey:   member.Key,
			Group:       rv.Group,
			Choice:      rv.Choice,
		})
	}
	return records
}

// batchMembers collects the canonical members referenced by a batch.
func (h *Harvester) batchMembers(batch *driven.SittingBatch) []domain.Member {
	keys := make(map[string]bool)
	for _, s := range batch.Speeches {
		keys[s.MemberKey] = true
	}
	for _, v := range batch.Votes {
		keys[v.MemberKey] = true
	}

	all := h.identities.Members()
	members := make([]domain.Member, 0, len(keys))
	for key := range keys {
		if m, ok := all[key]; ok {
			members = append(members, m)
		}
	}
	return members
}

func (h *Harvester) addFailure(date time.Time, kind domain.DocumentKind, err error) {
	logger.Warn("Date %s (%s) failed: %v", date.Format(domain.DateLayout), kind, err)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status.Failures++
	h.report.Failures = append(h.report.Failures, domain.DateFailure{Date: date, Kind: kind, Err: err})
}

func (h *Harvester) addWarning(w domain.Warning) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.report.Warnings = append(h.report.Warnings, w)
}
