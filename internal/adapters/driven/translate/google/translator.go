// Package google provides a Translator backed by the Google Cloud
// Translation API (v2).
package google

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
)

// maxChunkSize is the largest text segment sent in one API call. The API
// rejects longer inputs, so oversized speeches are split at word
// boundaries and the translated segments rejoined.
const maxChunkSize = 5000

// targetLanguage is the translation target for all speech text.
const targetLanguage = "en"

// Translator translates speech text to English via the Cloud Translation API.
type Translator struct {
	translateFn func(ctx context.Context, texts []string) ([]string, error)
}

var _ driven.Translator = (*Translator)(nil)

// New creates a translator authenticated with an API key.
func New(ctx context.Context, apiKey string) (*Translator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("translation API key is empty: %w", domain.ErrInvalidInput)
	}

	svc, err := translate.NewService(ctx, option.WithAPIKey(strings.TrimSpace(apiKey)))
	if err != nil {
		return nil, fmt.Errorf("creating translation service: %w", err)
	}

	return &Translator{
		translateFn: func(ctx context.Context, texts []string) ([]string, error) {
			resp, err := svc.Translations.List(texts, targetLanguage).
				Format("text").Context(ctx).Do()
			if err != nil {
				return nil, err
			}
			out := make([]string, len(resp.Translations))
			for i, tr := range resp.Translations {
				out[i] = tr.TranslatedText
			}
			return out, nil
		},
	}, nil
}

// Enabled reports whether translation will be attempted.
func (t *Translator) Enabled() bool {
	return true
}

// Translate returns the English rendering of text.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}

	chunks := splitChunks(text, maxChunkSize)
	translated, err := t.translateFn(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("translating text: %w", err)
	}
	if len(translated) != len(chunks) {
		return "", fmt.Errorf("translation returned %d segments for %d inputs", len(translated), len(chunks))
	}

	return strings.Join(translated, " "), nil
}

// splitChunks splits text into segments of at most limit bytes, breaking
// at the last space before the limit when one exists. A spaceless window
// is cut hard, backed up to the nearest rune boundary so no chunk carries
// a torn multibyte character.
func splitChunks(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], " ")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
