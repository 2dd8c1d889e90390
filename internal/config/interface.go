package config

import "context"

// Loader is the interface for a format-specific settings loader.
type Loader interface {
	// Load reads settings from the given paths and merges them into a single
	// Settings value. Paths that do not exist are ignored.
	Load(ctx context.Context, paths ...string) (*Settings, error)
}
