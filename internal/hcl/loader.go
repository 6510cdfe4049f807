package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/stagegraph/internal/config"
	"github.com/vk/stagegraph/internal/ctxlog"
	"github.com/vk/stagegraph/internal/fsutil"
	"github.com/vk/stagegraph/internal/pipeerr"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL blueprint loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file under paths. Exactly one pipeline block must be
// declared across all of them.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Blueprint, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var (
		found *pipelineBlock
		dir   string
		where string
	)
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		for _, p := range root.Pipelines {
			if found != nil {
				return nil, &pipeerr.StructuralError{
					Reason: fmt.Sprintf("pipeline %q in %s: only one pipeline may be declared, %q is already declared in %s", p.Title, file, found.Title, where),
				}
			}
			found, dir, where = p, filepath.Dir(file), file
		}
	}
	if found == nil {
		return nil, &pipeerr.NotFoundError{Kind: "pipeline block", Name: "pipeline", Scope: fmt.Sprintf("%v", paths)}
	}

	bp, err := translatePipeline(found, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline %q from %s: %w", found.Title, where, err)
	}

	logger.Debug("HCL loading complete.",
		"title", bp.Title,
		"fragment", bp.Fragment,
		"nodes", len(bp.Nodes),
		"parameters", len(bp.Parameters),
		"rules", len(bp.DataRules)+len(bp.DriftRules)+len(bp.MetricRules),
	)
	return bp, nil
}

// LoadSource parses a single in-memory blueprint. Relative fragment paths are
// resolved against dir.
func (l *Loader) LoadSource(ctx context.Context, src []byte, filename, dir string) (*config.Blueprint, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	var root fileRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	if len(root.Pipelines) != 1 {
		return nil, &pipeerr.StructuralError{Reason: fmt.Sprintf("%s: expected exactly one pipeline block, found %d", filename, len(root.Pipelines))}
	}

	ctxlog.FromContext(ctx).Debug("HCL source parsed.", "file", filename)
	return translatePipeline(root.Pipelines[0], dir)
}

func decode(body hcl.Body, ctx *hcl.EvalContext, target any) error {
	if diags := gohcl.DecodeBody(body, ctx, target); diags.HasErrors() {
		return diags
	}
	return nil
}
