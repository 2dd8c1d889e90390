// Package engine runs a single scenario from its first step to its last.
//
// For each step the engine resolves a definition through the catalog, binds
// arguments through the outline binder, looks up the owning instance and
// invokes the target. Once a step does not pass, every remaining step of the
// scenario is recorded as skipped without being invoked.
//
// Listeners are notified synchronously on the calling goroutine in the order
// BeforeScenario, then BeforeStep and AfterStep per step, then AfterScenario.
// AfterScenario is emitted exactly once per Run, including when the loop is
// interrupted or a panic escapes step handling. The scenario scope is cleared
// before the first notification and after the last.
package engine
