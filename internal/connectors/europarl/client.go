package europarl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
	"github.com/custodia-labs/plenara-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.Fetcher = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://www.europarl.europa.eu/doceo/document"
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond keeps the client polite towards the archive.
	DefaultRequestsPerSecond = 2.0
	DefaultBurst             = 2

	// maxDocumentSize bounds how much XML is read for one document.
	maxDocumentSize = 64 << 20 // 64 MiB
)

// Config holds configuration for the archive client.
type Config struct {
	// BaseURL is the document endpoint root (default: the public archive).
	BaseURL string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond is the sustained request rate (default: 2).
	RequestsPerSecond float64

	// Burst is the token bucket burst size (default: 2).
	Burst int

	// Retry is the bounded-retry policy (default: DefaultPolicy).
	Retry Policy

	// HTTPClient overrides the HTTP client. Nil means a client with the
	// configured timeout.
	HTTPClient *http.Client
}

// Client fetches sitting documents from the archive with rate limiting
// and bounded retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retry      Policy
}

// New creates a new archive client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultPolicy()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		retry:      cfg.Retry,
	}
}

// DocumentURL builds the archive URL for a date and document kind.
// Returns ErrNoTerm when no parliamentary term covers the date.
func (c *Client) DocumentURL(date time.Time, kind domain.DocumentKind) (string, error) {
	term, ok := domain.TermForDate(date)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoTerm, date.Format(domain.DateLayout))
	}

	dateStr := date.Format(domain.DateLayout)
	switch kind {
	case domain.KindSpeech:
		return fmt.Sprintf("%s/CRE-%d-%s_EN.xml", c.baseURL, term.Number, dateStr), nil
	case domain.KindVote:
		return fmt.Sprintf("%s/PV-%d-%s-RCV_EN.xml", c.baseURL, term.Number, dateStr), nil
	default:
		return "", fmt.Errorf("%w: document kind %q", domain.ErrInvalidInput, kind)
	}
}

// Fetch retrieves the document of the given kind for one sitting date.
// A 404 from the archive means no sitting (or no roll-call session) that
// day and yields (nil, nil). Transient failures are retried per the
// configured policy; exhaustion returns a *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, date time.Time, kind domain.DocumentKind) (*domain.RawDocument, error) {
	url, err := c.DocumentURL(date, kind)
	if err != nil {
		return nil, &domain.FetchError{Date: date, Kind: kind, Err: err}
	}

	var content []byte
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return Permanent(err)
		}

		body, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		content = body
		return nil
	})

	switch {
	case err == nil:
		logger.Debug("Fetched %s (%d bytes)", url, len(content))
		return &domain.RawDocument{Date: date, Kind: kind, URL: url, Content: content}, nil
	case IsNotFound(err):
		logger.Debug("No %s document for %s", kind, date.Format(domain.DateLayout))
		return nil, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, &domain.FetchError{Date: date, Kind: kind, Err: err}
	}
}

// get performs a single HTTP attempt. Non-transient responses come back
// wrapped in Permanent so the retry loop stops immediately.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err // Network errors are transient
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, Permanent(errNoSitting)

	default:
		apiErr := &APIError{StatusCode: resp.StatusCode, URL: url}
		if apiErr.Transient() {
			return nil, apiErr
		}
		return nil, Permanent(apiErr)
	}
}
