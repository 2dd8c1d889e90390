// Package scope provides scenario-local resource storage with LIFO teardown.
//
// # Purpose
//
// Step implementations often need objects whose lifetime is exactly one
// scenario: an HTTP client with a cookie jar, a socket connection, a permit
// taken from a gate. A Scope hands out such objects by name and disposes of
// them when the scenario ends, in the reverse order of their creation.
//
// # Keys
//
// Every stack belongs to a Key. The runner gives each worker goroutine its own
// Key and carries it on the context passed to the engine and to step targets.
// A Key's stack must only be touched from the goroutine running that worker's
// current scenario.
//
// # Entries
//
// A stack holds two kinds of entries:
//   - BEAN: a named instance created by a factory on first Get.
//   - CALLBACK: a named function run when the scope is cleared.
//
// At most one entry of each kind exists per name per Key.
//
// # Teardown
//
// Clear pops every entry in LIFO order. Beans implementing Disposer or
// io.Closer are disposed, callbacks are run. Failures and panics are logged
// and swallowed so that one bad disposal never blocks the rest.
package scope
