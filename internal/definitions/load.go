package definitions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vk/stagegraph/internal/ctxlog"
)

// Load decodes a definitions document.
func Load(ctx context.Context, r io.Reader) (*Definitions, error) {
	logger := ctxlog.FromContext(ctx)

	var defs Definitions
	if err := json.NewDecoder(r).Decode(&defs); err != nil {
		return nil, fmt.Errorf("failed to decode definitions: %w", err)
	}
	logger.Debug("Definitions decoded.", "stages", len(defs.Stages), "services", len(defs.Services))
	return &defs, nil
}

// LoadFile decodes the definitions document stored at path.
func LoadFile(ctx context.Context, path string) (*Definitions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions file %s: %w", path, err)
	}
	defer f.Close()

	defs, err := Load(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}
