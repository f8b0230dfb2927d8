package file

import (
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyWorkers           = "fetch.workers"
	KeyRequestsPerSecond = "fetch.requests_per_second"
	KeyBurst             = "fetch.burst"
	KeyMaxAttempts       = "fetch.max_attempts"
	KeyBaseURL           = "fetch.base_url"
	KeyTranslateAPIKey   = "translate.api_key"
	KeyAliases           = "aliases"
)

// Settings is the typed view of the configuration file. Zero values are
// replaced with defaults where one exists; the CLI flags override these.
type Settings struct {
	// Workers is the harvest worker pool size.
	Workers int

	// RequestsPerSecond and Burst shape the upstream rate limit.
	RequestsPerSecond float64
	Burst             int

	// MaxAttempts caps fetch retries.
	MaxAttempts int

	// BaseURL overrides the upstream document host, when set.
	BaseURL string

	// TranslateAPIKey enables translation when non-empty.
	TranslateAPIKey string

	// Aliases maps raw upstream name tokens to canonical member keys.
	Aliases map[string]string
}

// LoadSettings reads the typed settings from a config store.
func LoadSettings(store driven.ConfigStore) Settings {
	return Settings{
		Workers:           store.GetInt(KeyWorkers),
		RequestsPerSecond: store.GetFloat(KeyRequestsPerSecond),
		Burst:             store.GetInt(KeyBurst),
		MaxAttempts:       store.GetInt(KeyMaxAttempts),
		BaseURL:           store.GetString(KeyBaseURL),
		TranslateAPIKey:   store.GetString(KeyTranslateAPIKey),
		Aliases:           store.GetStringMap(KeyAliases),
	}
}
