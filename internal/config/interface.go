package config

import "context"

// Loader is the interface for a format-specific build description loader.
type Loader interface {
	// Load reads the build description at path, translates it into the
	// format-agnostic model, and validates it.
	Load(ctx context.Context, path string) (*Model, error)
}
