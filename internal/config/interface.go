package config

import "context"

// Loader is the interface for a format-specific registry loader. The HCL
// implementation lives in internal/hcl; tests inject models directly.
type Loader interface {
	// Load reads registry manifests from the given paths (files or
	// directories), translates them into the format-agnostic model and
	// merges them over the embedded defaults.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
