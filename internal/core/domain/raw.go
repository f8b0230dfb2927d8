package domain

import "time"

// DocumentKind identifies which of the two upstream XML document types
// a raw payload contains.
type DocumentKind string

const (
	// KindSpeech is the verbatim report of proceedings for one sitting.
	KindSpeech DocumentKind = "speech"

	// KindVote is the roll-call vote results document for one sitting.
	KindVote DocumentKind = "vote"
)

// Valid reports whether the kind is one of the known document kinds.
func (k DocumentKind) Valid() bool {
	return k == KindSpeech || k == KindVote
}

// RawDocument represents opaque XML bytes fetched for one sitting date.
// It is the fetcher's output before normalisation and is discarded once
// parsed (apart from the optional on-disk archive copy).
type RawDocument struct {
	// Date is the sitting date the document was fetched for.
	Date time.Time

	// Kind is the document kind (speech or vote).
	Kind DocumentKind

	// URL is the upstream location the document was retrieved from.
	URL string

	// Content is the raw XML bytes.
	Content []byte
}
