// Package executor runs many scenarios concurrently on a fixed pool of
// workers.
//
// Each worker owns one scope key for its whole lifetime and runs one scenario
// at a time on its own goroutine, so a scenario's steps never leave the
// goroutine that started them. A failing scenario never affects its siblings;
// only panics that escape the engine are reported as errors.
package executor
