package domain

import "time"

// SpeechRecord is one speech within a plenary sitting, in canonical form.
// Records are immutable after creation; TranslatedText is attached post-hoc
// and never replaces OriginalText.
type SpeechRecord struct {
	// ID is the unique record identifier.
	ID string

	// Date is the sitting date.
	Date time.Time

	// MemberKey links to the canonical Member who spoke.
	MemberKey string

	// Sequence is the speech's ordinal position within the sitting.
	Sequence int

	// Topic is the English title of the agenda chapter, when published.
	Topic string

	// TimeStart and TimeEnd bound the chapter's video segment ("HH:MM:SS").
	// Empty when the sitting report carries no timing attributes.
	TimeStart string
	TimeEnd   string

	// DurationSeconds is the segment length, or 0 when timing is absent.
	DurationSeconds int

	// SpeakerRole is the upstream speaker type attribute, when present.
	SpeakerRole string

	// OriginalText is the speech text as published.
	OriginalText string

	// TranslatedText is the English translation, when translation ran
	// and succeeded. Nil otherwise.
	TranslatedText *string
}

// WordCount returns the number of whitespace-separated words in the
// original speech text.
func (s SpeechRecord) WordCount() int {
	n, inWord := 0, false
	for _, r := range s.OriginalText {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				n++
			}
			inWord = true
		}
	}
	return n
}

// VoteChoice is one member's recorded position in a roll-call ballot.
type VoteChoice string

const (
	// ChoiceFor is a vote in favour.
	ChoiceFor VoteChoice = "for"

	// ChoiceAgainst is a vote against.
	ChoiceAgainst VoteChoice = "against"

	// ChoiceAbstain is a recorded abstention.
	ChoiceAbstain VoteChoice = "abstain"
)

// Valid reports whether the choice is one of the closed set.
func (c VoteChoice) Valid() bool {
	switch c {
	case ChoiceFor, ChoiceAgainst, ChoiceAbstain:
		return true
	}
	return false
}

// VoteRecord is one member's choice in one roll-call ballot. Immutable.
type VoteRecord struct {
	// ID is the unique record identifier.
	ID string

	// Date is the sitting date.
	Date time.Time

	// BallotID identifies the ballot within the sitting.
	BallotID string

	// Description is the ballot's published description text.
	Description string

	// MemberKey links to the canonical Member who voted.
	MemberKey string

	// Group is the political group the member voted under, when published.
	Group string

	// Choice is the recorded position.
	Choice VoteChoice
}

// Corpus is the full set of normalised records persisted for one run.
// A corpus is scoped to exactly one output directory and one period;
// mixing periods in one directory is rejected before any write.
type Corpus struct {
	// Period is the harvest date range the corpus covers.
	Period Period

	// Members maps member key to canonical identity.
	Members map[string]Member

	// Speeches holds all speech records, ordered by date then sequence.
	Speeches []SpeechRecord

	// Votes holds all vote records, ordered by date then ballot.
	Votes []VoteRecord
}
