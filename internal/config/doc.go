// Package config defines the format-agnostic settings model for the
// application, along with the Loader interface for reading settings from
// various sources.
//
// Settings cover the runner itself (suite name, worker count, unimplemented
// step policy), the permit counts of named gates and the connection defaults
// of the built-in step libraries. The HCL implementation of Loader lives in
// the hcl_adapter package.
package config
