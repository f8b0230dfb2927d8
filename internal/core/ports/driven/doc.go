// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Fetcher: Retrieves raw XML documents from the upstream endpoint
//   - Normaliser: Transforms raw XML into canonical records
//   - RecordStore: Corpus persistence, scoped to one period
//
// # Optional Interfaces
//
// These can degrade gracefully:
//
//   - Translator: English translation of speech text. A disabled
//     implementation keeps the pipeline fully functional; records are
//     stored with their original text only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
