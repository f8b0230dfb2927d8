package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
)

// fakeFetcher serves canned documents keyed by "date/kind".
type fakeFetcher struct {
	mu   sync.Mutex
	docs map[string][]byte
	errs map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{docs: map[string][]byte{}, errs: map[string]error{}}
}

func docKey(date string, kind domain.DocumentKind) string {
	return date + "/" + string(kind)
}

func (f *fakeFetcher) put(date string, kind domain.DocumentKind, content string) {
	f.docs[docKey(date, kind)] = []byte(content)
}

func (f *fakeFetcher) Fetch(_ context.Context, date time.Time, kind domain.DocumentKind) (*domain.RawDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := docKey(date.Format(domain.DateLayout), kind)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	content, ok := f.docs[key]
	if !ok {
		return nil, nil
	}
	return &domain.RawDocument{Date: date, Kind: kind, Content: content}, nil
}

// fakeNormaliser turns a document's content into one raw record per line.
type fakeNormaliser struct {
	kind domain.DocumentKind
	fn   func(raw *domain.RawDocument) (*driven.NormaliseResult, error)
}

func (n *fakeNormaliser) Kind() domain.DocumentKind { return n.kind }

func (n *fakeNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return n.fn(raw)
}

func speechNormaliser(fn func(raw *domain.RawDocument) (*driven.NormaliseResult, error)) driven.Normaliser {
	return &fakeNormaliser{kind: domain.KindSpeech, fn: fn}
}

func voteNormaliser(fn func(raw *domain.RawDocument) (*driven.NormaliseResult, error)) driven.Normaliser {
	return &fakeNormaliser{kind: domain.KindVote, fn: fn}
}

// oneSpeechPerDoc emits a single speech attributed to the document content.
func oneSpeechPerDoc(raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{Speeches: []driven.RawSpeech{{
		Sequence:    1,
		SpeakerID:   "100",
		SpeakerName: "Ada Tester",
		Party:       "ALDE",
		Text:        string(raw.Content),
	}}}, nil
}

func oneVotePerDoc(raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{Votes: []driven.RawBallotVote{{
		BallotID:    "b-" + raw.Date.Format(domain.DateLayout),
		Description: string(raw.Content),
		MemberID:    "100",
		MemberName:  "Ada Tester",
		Group:       "ALDE",
		Choice:      domain.ChoiceFor,
	}}}, nil
}

// memStore is a minimal in-memory RecordStore for orchestrator tests.
type memStore struct {
	mu         sync.Mutex
	period     domain.Period
	batches    []driven.SittingBatch
	archived   []*domain.RawDocument
	saveErr    error
	archiveErr error
}

func (s *memStore) Period() domain.Period { return s.period }

func (s *memStore) SaveSitting(_ context.Context, batch driven.SittingBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.batches = append(s.batches, batch)
	return nil
}

func (s *memStore) ArchiveRaw(_ context.Context, raw *domain.RawDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archiveErr != nil {
		return s.archiveErr
	}
	s.archived = append(s.archived, raw)
	return nil
}

func (s *memStore) LoadCorpus(_ context.Context) (*domain.Corpus, error) {
	return nil, errors.New("not implemented")
}

func (s *memStore) Close() error { return nil }

// cancelFetcher cancels the run once a trigger document has been served.
type cancelFetcher struct {
	inner   *fakeFetcher
	trigger string
	cancel  context.CancelFunc
}

func (f *cancelFetcher) Fetch(ctx context.Context, date time.Time, kind domain.DocumentKind) (*domain.RawDocument, error) {
	raw, err := f.inner.Fetch(ctx, date, kind)
	if docKey(date.Format(domain.DateLayout), kind) == f.trigger {
		f.cancel()
	}
	return raw, err
}

// fakeTranslator appends a marker, or fails on demand.
type fakeTranslator struct {
	enabled bool
	fail    bool
	calls   int
}

func (t *fakeTranslator) Enabled() bool { return t.enabled }

func (t *fakeTranslator) Translate(_ context.Context, text string) (string, error) {
	t.calls++
	if t.fail {
		return "", errors.New("quota exceeded")
	}
	return text + " [en]", nil
}

func mustPeriod(t *testing.T, from, to string) domain.Period {
	t.Helper()
	p, err := domain.ParsePeriod(from, to)
	require.NoError(t, err)
	return p
}

func testHarvester(t *testing.T, cfg HarvesterConfig) *Harvester {
	t.Helper()
	if cfg.Speeches == nil {
		cfg.Speeches = speechNormaliser(oneSpeechPerDoc)
	}
	if cfg.Votes == nil {
		cfg.Votes = voteNormaliser(oneVotePerDoc)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 2
	}
	return NewHarvester(cfg)
}

func TestHarvesterRun(t *testing.T) {
	t.Run("collects speeches and votes across the period", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "first sitting")
		fetcher.put("2024-09-16", domain.KindVote, "resolution A")
		fetcher.put("2024-09-18", domain.KindSpeech, "second sitting")

		store := &memStore{}
		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-15", "2024-09-19"),
			Fetcher: fetcher,
			Store:   store,
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 5, report.DatesScanned)
		assert.Equal(t, 2, report.Sittings)
		assert.Equal(t, 2, report.Speeches)
		assert.Equal(t, 1, report.Votes)
		assert.Empty(t, report.Failures)
		assert.True(t, report.Clean())

		require.Len(t, store.batches, 2)
		for _, batch := range store.batches {
			require.NotEmpty(t, batch.Members)
			assert.Equal(t, "Ada Tester", batch.Members[0].DisplayName)
		}
	})

	t.Run("dates without documents are scanned but not sittings", func(t *testing.T) {
		store := &memStore{}
		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-15", "2024-09-17"),
			Fetcher: newFakeFetcher(),
			Store:   store,
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, report.DatesScanned)
		assert.Zero(t, report.Sittings)
		assert.Empty(t, store.batches)
	})

	t.Run("fetch failure on one date leaves other dates intact", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "ok")
		fetcher.errs[docKey("2024-09-17", domain.KindSpeech)] = &domain.FetchError{
			Kind: domain.KindSpeech, Err: errors.New("server error"),
		}

		store := &memStore{}
		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-16", "2024-09-17"),
			Fetcher: fetcher,
			Store:   store,
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, report.Speeches)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, "2024-09-17", report.Failures[0].Date.Format(domain.DateLayout))
		assert.Equal(t, domain.KindSpeech, report.Failures[0].Kind)
		assert.False(t, report.Clean())
	})

	t.Run("malformed vote document does not discard the date's speeches", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "kept")
		fetcher.put("2024-09-16", domain.KindVote, "broken")

		votes := voteNormaliser(func(raw *domain.RawDocument) (*driven.NormaliseResult, error) {
			return nil, &domain.MalformedDocumentError{Date: raw.Date, Kind: raw.Kind, Err: errors.New("not XML")}
		})

		store := &memStore{}
		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-16", "2024-09-16"),
			Fetcher: fetcher,
			Votes:   votes,
			Store:   store,
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, report.Speeches)
		assert.Zero(t, report.Votes)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, domain.KindVote, report.Failures[0].Kind)
		require.Len(t, store.batches, 1)
		assert.Len(t, store.batches[0].Speeches, 1)
		assert.Empty(t, store.batches[0].Votes)
	})

	t.Run("parser warnings surface in the report", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "doc")

		speeches := speechNormaliser(func(raw *domain.RawDocument) (*driven.NormaliseResult, error) {
			return &driven.NormaliseResult{Warnings: []domain.Warning{
				{Kind: domain.WarnParse, Date: raw.Date, Detail: "fragment 3 skipped"},
			}}, nil
		})

		h := testHarvester(t, HarvesterConfig{
			Period:   mustPeriod(t, "2024-09-16", "2024-09-16"),
			Fetcher:  fetcher,
			Speeches: speeches,
			Store:    &memStore{},
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, domain.WarnParse, report.Warnings[0].Kind)
	})

	t.Run("translation enriches records", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "guten Tag")

		translator := &fakeTranslator{enabled: true}
		store := &memStore{}
		h := testHarvester(t, HarvesterConfig{
			Period:     mustPeriod(t, "2024-09-16", "2024-09-16"),
			Fetcher:    fetcher,
			Translator: translator,
			Store:      store,
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, report.Translated)
		require.Len(t, store.batches, 1)
		rec := store.batches[0].Speeches[0]
		assert.Equal(t, "guten Tag", rec.OriginalText)
		require.NotNil(t, rec.TranslatedText)
		assert.Equal(t, "guten Tag [en]", *rec.TranslatedText)
	})

	t.Run("translation failure keeps the original text", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "guten Tag")

		store := &memStore{}
		h := testHarvester(t, HarvesterConfig{
			Period:     mustPeriod(t, "2024-09-16", "2024-09-16"),
			Fetcher:    fetcher,
			Translator: &fakeTranslator{enabled: true, fail: true},
			Store:      store,
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)

		assert.Zero(t, report.Translated)
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, domain.WarnTranslate, report.Warnings[0].Kind)
		require.Len(t, store.batches, 1)
		rec := store.batches[0].Speeches[0]
		assert.Equal(t, "guten Tag", rec.OriginalText)
		assert.Nil(t, rec.TranslatedText)
	})

	t.Run("disabled translator is never invoked", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "text")

		translator := &fakeTranslator{enabled: false}
		h := testHarvester(t, HarvesterConfig{
			Period:     mustPeriod(t, "2024-09-16", "2024-09-16"),
			Fetcher:    fetcher,
			Translator: translator,
			Store:      &memStore{},
		})

		_, err := h.Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, translator.calls)
	})

	t.Run("store failure is reported per present kind", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "doc")
		fetcher.put("2024-09-16", domain.KindVote, "doc")

		store := &memStore{saveErr: errors.New("disk full")}
		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-16", "2024-09-16"),
			Fetcher: fetcher,
			Store:   store,
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)

		assert.Zero(t, report.Speeches)
		assert.Zero(t, report.Votes)
		require.Len(t, report.Failures, 2)
		kinds := map[domain.DocumentKind]bool{}
		for _, f := range report.Failures {
			kinds[f.Kind] = true
			assert.ErrorContains(t, f.Err, "disk full")
		}
		assert.True(t, kinds[domain.KindSpeech])
		assert.True(t, kinds[domain.KindVote])
	})

	t.Run("raw documents are archived", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "doc")
		fetcher.put("2024-09-16", domain.KindVote, "doc")

		store := &memStore{}
		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-16", "2024-09-16"),
			Fetcher: fetcher,
			Store:   store,
		})

		_, err := h.Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, store.archived, 2)
	})

	t.Run("record identifiers are unique", func(t *testing.T) {
		fetcher := newFakeFetcher()
		for _, d := range []string{"2024-09-16", "2024-09-17", "2024-09-18"} {
			fetcher.put(d, domain.KindSpeech, "doc "+d)
		}

		store := &memStore{}
		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-16", "2024-09-18"),
			Fetcher: fetcher,
			Store:   store,
		})

		_, err := h.Run(context.Background())
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, batch := range store.batches {
			for _, rec := range batch.Speeches {
				assert.False(t, seen[rec.ID], "duplicate record id %s", rec.ID)
				seen[rec.ID] = true
			}
		}
		assert.Len(t, seen, 3)
	})

	t.Run("identity warnings merge into the report", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "doc")
		fetcher.put("2024-09-17", domain.KindSpeech, "doc")

		calls := 0
		speeches := speechNormaliser(func(raw *domain.RawDocument) (*driven.NormaliseResult, error) {
			calls++
			id := fmt.Sprintf("%d", 100+calls)
			return &driven.NormaliseResult{Speeches: []driven.RawSpeech{{
				Sequence: 1, SpeakerID: id, SpeakerName: "Ada Tester", Text: "t",
			}}}, nil
		})

		h := testHarvester(t, HarvesterConfig{
			Period:   mustPeriod(t, "2024-09-16", "2024-09-17"),
			Fetcher:  fetcher,
			Speeches: speeches,
			Store:    &memStore{},
			Workers:  1,
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)

		require.Len(t, report.Warnings, 1)
		assert.Equal(t, domain.WarnIdentity, report.Warnings[0].Kind)
	})

	t.Run("archive failure is a warning, not a failure", func(t *testing.T) {
		fetcher := newFakeFetcher()
		fetcher.put("2024-09-16", domain.KindSpeech, "doc")

		store := &memStore{archiveErr: errors.New("read-only filesystem")}
		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-16", "2024-09-16"),
			Fetcher: fetcher,
			Store:   store,
		})

		report, err := h.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, report.Speeches)
		assert.Empty(t, report.Failures)
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, domain.WarnArchive, report.Warnings[0].Kind)
		assert.Contains(t, report.Warnings[0].Detail, "read-only filesystem")
		require.Len(t, store.batches, 1)
	})

	t.Run("mid-date cancellation commits nothing", func(t *testing.T) {
		inner := newFakeFetcher()
		inner.put("2024-09-16", domain.KindSpeech, "doc")
		inner.put("2024-09-16", domain.KindVote, "doc")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// The run is cancelled between fetching the date's documents and
		// committing the sitting; the batch must not reach the store.
		store := &memStore{}
		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-16", "2024-09-16"),
			Fetcher: &cancelFetcher{inner: inner, trigger: docKey("2024-09-16", domain.KindVote), cancel: cancel},
			Store:   store,
			Workers: 1,
		})

		report, err := h.Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, report)
		assert.Empty(t, store.batches)
		assert.Zero(t, report.Speeches)
		assert.Zero(t, report.Votes)
	})

	t.Run("cancellation returns the partial report", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		h := testHarvester(t, HarvesterConfig{
			Period:  mustPeriod(t, "2024-09-16", "2024-09-20"),
			Fetcher: newFakeFetcher(),
			Store:   &memStore{},
		})

		report, err := h.Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, report)
		assert.False(t, h.Status().Running)
	})
}

func TestHarvesterStatus(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("2024-09-16", domain.KindSpeech, "doc")

	h := testHarvester(t, HarvesterConfig{
		Period:  mustPeriod(t, "2024-09-16", "2024-09-16"),
		Fetcher: fetcher,
		Store:   &memStore{},
	})

	assert.False(t, h.Status().Running)

	_, err := h.Run(context.Background())
	require.NoError(t, err)

	status := h.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.DatesProcessed)
	assert.Equal(t, 1, status.Speeches)
}
