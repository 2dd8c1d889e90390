// Package result defines the step and scenario result aggregates produced by
// the engine and consumed by listeners.
package result
