package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
)

// Fetcher retrieves raw XML documents from the upstream archive.
type Fetcher interface {
	// Fetch retrieves the document of the given kind for one sitting date.
	//
	// A definitive "no sitting that day" (upstream 404) is a successful
	// empty result: (nil, nil). Transient failures are retried internally;
	// once retries are exhausted the error is a *domain.FetchError.
	// In-flight requests honour context cancellation.
	Fetch(ctx context.Context, date time.Time, kind domain.DocumentKind) (*domain.RawDocument, error)
}
