package driven

import "context"

// Translator translates speech text to English.
//
// Translation is an optional capability: a disabled implementation returns
// domain.ErrTranslatorDisabled from Translate and false from Enabled, and the
// pipeline stores records untranslated. Failures from an enabled translator
// degrade the same way, with a warning in the run report.
type Translator interface {
	// Enabled reports whether translation will be attempted at all.
	// The orchestrator skips the network round-trip entirely when false.
	Enabled() bool

	// Translate returns the English rendering of text.
	// Text already in English may be returned unchanged.
	Translate(ctx context.Context, text string) (string, error)
}
