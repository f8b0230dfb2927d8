// Package noop provides the disabled Translator used when no translation
// API key is configured.
package noop

import (
	"context"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
)

// Translator is a disabled translator. The pipeline checks Enabled before
// translating, so Translate returning an error is a caller bug surfaced
// loudly rather than silently ignored.
type Translator struct{}

var _ driven.Translator = Translator{}

// New creates a disabled translator.
func New() Translator {
	return Translator{}
}

// Enabled always reports false.
func (Translator) Enabled() bool {
	return false
}

// Translate always fails with domain.ErrTranslatorDisabled.
func (Translator) Translate(_ context.Context, _ string) (string, error) {
	return "", domain.ErrTranslatorDisabled
}
