// Package catalog holds every known step definition and resolves concrete
// steps against them.
//
// The catalog is built once at startup from an explicit list of Sources. Each
// Source registers its definitions through a Registrar; the collected
// definitions are then validated as a whole and any configuration problem
// (invalid pattern, unusable target, duplicate keyword and pattern pair) is
// reported in a single aggregated error before any scenario runs.
//
// After Build returns, a Catalog is read-only and safe to share across all
// scenario workers. Resolve scans the full definition list in registration
// order for every call, so the outcome for a given step is deterministic.
package catalog
