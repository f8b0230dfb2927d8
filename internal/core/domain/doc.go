// Package domain defines the core business entities for Plenara.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Period: A validated [start, end] harvest date range
//   - Member: A canonical parliamentarian identity
//   - SpeechRecord: One speech within a plenary sitting
//   - VoteRecord: One member's choice in a roll-call ballot
//   - Corpus: All records persisted for one period
//   - RawDocument: Opaque XML bytes from the upstream endpoint
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
