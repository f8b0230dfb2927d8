// Package europarl implements the fetcher for the European Parliament
// document archive.
//
// The archive publishes two XML document kinds per plenary sitting date,
// both addressed by parliamentary term and date:
//
//   - Speeches: {base}/CRE-{term}-{date}_EN.xml (verbatim report)
//   - Votes:    {base}/PV-{term}-{date}-RCV_EN.xml (roll-call results)
//
// Not every calendar date has a sitting, and sittings without roll-call
// votes have no vote document. The archive answers both cases with 404,
// which the client reports as a successful empty result rather than an
// error.
//
// # Rate Limiting
//
// A token bucket limits request throughput to stay polite towards the
// archive. The default of two requests per second mirrors the interval
// throttling the archive is known to tolerate.
//
// # Retry
//
// Transient failures (network errors, 5xx, 429) are retried with
// exponential backoff under an explicit Policy. The policy's sleep is
// injectable so retry behaviour is testable without a real clock. Once
// attempts are exhausted the client returns a *domain.FetchError carrying
// the date, kind and cause.
package europarl
