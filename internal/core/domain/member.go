package domain

// Member is the canonical identity of one parliamentarian, reconciled
// across the speech and vote sources. The same person appears with
// different spellings, name orders and attribute schemes in the two
// document kinds; the identity resolver maps all of them to one Member.
type Member struct {
	// Key is the stable, source-independent member key. When the upstream
	// person identifier is known it is "mep-<id>"; otherwise it is derived
	// from the normalised display name.
	Key string

	// DisplayName is the human-readable name as first seen.
	DisplayName string

	// PersonID is the upstream numeric person identifier, if known.
	// Both sources share one identifier scheme, which makes it the
	// preferred reconciliation anchor.
	PersonID string

	// Party is the political group code, if the source carried one.
	Party string
}
