// Package convert turns the raw strings captured from step text into the Go
// values declared by step definition parameters. Conversion is delegated to
// go-cty so that step arguments follow the same coercion rules as the rest of
// the configuration surface.
package convert
