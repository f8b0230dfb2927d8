package driven

import (
	"context"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
)

// RawSpeech is one speech extracted from a sitting report before identity
// resolution. Speaker fields are raw tokens as published, not member keys.
type RawSpeech struct {
	// Sequence is the speech's ordinal position within the sitting.
	Sequence int

	// SpeakerID is the upstream person identifier attribute, if present.
	SpeakerID string

	// SpeakerName is the speaker name token as published.
	SpeakerName string

	// Party is the political group attribute, if present.
	Party string

	// Role is the speaker type attribute, if present.
	Role string

	// Topic is the English chapter title, if published.
	Topic string

	// TimeStart and TimeEnd bound the chapter's video segment.
	TimeStart string
	TimeEnd   string

	// DurationSeconds is the segment length, 0 when timing is absent.
	DurationSeconds int

	// Text is the cleaned speech text.
	Text string
}

// RawBallotVote is one member's position in one ballot before identity
// resolution.
type RawBallotVote struct {
	// BallotID identifies the ballot within the sitting.
	BallotID string

	// Description is the ballot description text.
	Description string

	// MemberID is the upstream person identifier attribute, if present.
	MemberID string

	// MemberName is the member name token as published.
	MemberName string

	// Group is the political group identifier, if present.
	Group string

	// Choice is the recorded position.
	Choice domain.VoteChoice
}

// NormaliseResult carries everything a normaliser extracted from one raw
// document: as many valid records as possible, plus a warning per skipped
// malformed fragment.
type NormaliseResult struct {
	// Speeches is populated for speech documents.
	Speeches []RawSpeech

	// Votes is populated for vote documents.
	Votes []RawBallotVote

	// Warnings lists skipped fragments. A warning never aborts the document.
	Warnings []domain.Warning
}

// Normaliser converts one raw XML document into canonical raw records.
// Implementations must tolerate the structural variation the upstream
// format exhibits across its publication history: a single malformed
// fragment is skipped with a warning, while a document that is not valid
// XML or lacks the expected root fails with *domain.MalformedDocumentError.
type Normaliser interface {
	// Kind returns the document kind this normaliser handles.
	Kind() domain.DocumentKind

	// Normalise parses one raw document.
	// Parsing the same document twice yields identical results.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}
