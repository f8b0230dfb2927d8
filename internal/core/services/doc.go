// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// All service state is scoped to the service instance: the member
// identity registry and the run report live for one run and are never
// package-level, so concurrent runs and tests stay isolated.
package services
