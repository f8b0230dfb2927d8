package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
)

// MemberActivity aggregates one member's activity across the corpus.
type MemberActivity struct {
	// Member is the canonical identity.
	Member domain.Member

	// SpeechCount is the number of speeches.
	SpeechCount int

	// SpeakingSeconds is the summed duration of timed speeches.
	SpeakingSeconds int

	// WordCount is the total words spoken (original text).
	WordCount int

	// VoteCount is the total ballot participation.
	VoteCount int

	// Choices is the per-choice vote distribution.
	Choices map[domain.VoteChoice]int
}

// SittingActivity aggregates one sitting date's activity.
type SittingActivity struct {
	// Date is the sitting date.
	Date time.Time

	// Speeches is the number of speeches that day.
	Speeches int

	// Ballots is the number of distinct roll-call ballots.
	Ballots int

	// Votes is the number of individual vote records.
	Votes int
}

// CorpusSummary is the full set of descriptive statistics for one corpus.
// It is a pure, deterministic reduction: the same corpus always produces
// the same summary, with members and sittings in stable sorted order.
type CorpusSummary struct {
	// Period is the corpus period.
	Period domain.Period

	// Members is sorted by display name.
	Members []MemberActivity

	// Sittings is sorted by date.
	Sittings []SittingActivity

	// TotalSpeeches, TotalVotes and TotalBallots are corpus-wide counts.
	TotalSpeeches int
	TotalVotes    int
	TotalBallots  int
}

// MemberWordUsage counts one member's occurrences of a queried word.
type MemberWordUsage struct {
	// Member is the canonical identity.
	Member domain.Member

	// Occurrences is the total number of matches across the member's speeches.
	Occurrences int

	// Speeches is the number of the member's speeches containing the word.
	Speeches int
}

// WordUsage is the corpus-wide frequency of one queried word.
type WordUsage struct {
	// Word is the queried word, lowercased.
	Word string

	// Occurrences is the total number of matches across all speeches.
	Occurrences int

	// Speeches is the number of speeches containing the word.
	Speeches int

	// Members is sorted by occurrences descending, then display name.
	Members []MemberWordUsage
}

// StatsService computes descriptive statistics over a persisted corpus.
type StatsService interface {
	// Summarise loads the corpus from the store and reduces it.
	Summarise(ctx context.Context) (*CorpusSummary, error)

	// MemberSummary returns the activity of one member, matched by
	// case-insensitive substring of the display name.
	MemberSummary(ctx context.Context, nameQuery string) (*MemberActivity, error)

	// WordUsage counts case-insensitive occurrences of a word across
	// speech text, overall and per member. Translated text is searched
	// when present, the original text otherwise.
	WordUsage(ctx context.Context, word string) (*WordUsage, error)
}
