package config

import "context"

// Loader is the interface for a format-specific blueprint loader.
type Loader interface {
	// Load reads every blueprint file under paths and translates the single
	// pipeline they declare into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Blueprint, error)
}
