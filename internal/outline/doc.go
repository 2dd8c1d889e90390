// Package outline binds the capture groups of a resolved step to the typed
// arguments of its target. For scenarios instantiated from an outline it first
// substitutes <placeholder> tokens with the cells of the example row the
// scenario was built from.
package outline
