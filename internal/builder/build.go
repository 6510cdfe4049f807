package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/stagegraph/internal/ctxlog"
	"github.com/vk/stagegraph/internal/definitions"
	"github.com/vk/stagegraph/internal/layout"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
)

// Build finalizes the document under title and returns it. The id is assigned
// on the first Build only, so rebuilding yields the same id. Findings of the
// lane consistency pass are logged and available from Warnings; they never
// fail the build.
func (b *Builder) Build(ctx context.Context, title string) (*pipeline.Document, error) {
	logger := ctxlog.FromContext(ctx).With("title", title, "fragment", b.fragment)
	logger.Debug("Build: Starting document finalization.", "stages", len(b.doc.Stages))

	b.warnings = nil
	if !b.fragment && b.doc.ErrorStage == nil {
		w := &pipeerr.StructuralError{Reason: "pipeline has no error stage, the engine will reject it until one is added"}
		b.warnings = append(b.warnings, w)
		logger.Warn("Build: Missing error stage.", "warning", w)
	}

	layout.AutoArrange(ctx, b.doc.Stages)
	b.doc.Metadata.Labels = []string{}

	if b.fragment {
		if err := b.closeFragment(ctx); err != nil {
			return nil, err
		}
	} else {
		b.wireFragmentEntries()
	}

	if b.doc.ID() == "" {
		b.doc.SetID(b.documentID(title))
		logger.Debug("Build: Assigned document id.", "id", b.doc.ID())
	}
	if b.fragment && b.doc.FragmentID == "" {
		b.doc.FragmentID = b.doc.ID()
	}
	b.doc.SetTitle(title)

	for _, w := range checkLanes(b.doc, b.fragment) {
		b.warnings = append(b.warnings, w)
		logger.Warn("Build: Lane consistency.", "warning", w)
	}

	logger.Info("Build: Document finalized.", "id", b.doc.ID(), "stages", len(b.doc.Stages), "warnings", len(b.warnings))
	return b.doc, nil
}

// closeFragment gives every source and processor without outputs an open
// lane, labels the fragment and records its boundary stage.
func (b *Builder) closeFragment(ctx context.Context) error {
	for _, inst := range b.doc.Stages {
		if inst.UIInfo.StageType == pipeline.StageTypeTarget || len(inst.OutputLanes) > 0 {
			continue
		}
		if _, err := b.wrap(inst).Connect(false); err != nil {
			return fmt.Errorf("failed to open lane of %s: %w", inst.InstanceName, err)
		}
	}

	open := pipeline.OpenOutputLanes(b.doc.Stages)
	label := pipeline.FragmentLabel(b.doc.Stages, len(open))
	b.doc.Metadata.Labels = []string{label}

	boundary, err := b.newInstance(definitions.Selector{Label: pipeline.FragmentStageLabel(label)}, nil)
	if err != nil {
		return fmt.Errorf("failed to create fragment stage: %w", err)
	}
	boundary.OutputLanes = open
	b.doc.UIInfo.FragmentStageConfiguration = boundary

	ctxlog.FromContext(ctx).Debug("Build: Fragment closed.", "label", label, "open_lanes", len(open))
	return nil
}

// wireFragmentEntries copies the input lanes of processor and destination
// group stages onto the entry stage of the fragment they stand for.
// Fragments have at most one input lane.
func (b *Builder) wireFragmentEntries() {
	for _, inst := range b.doc.Stages {
		if !inst.UIInfo.FragmentGroupStage {
			continue
		}
		if !strings.Contains(inst.InstanceName, "FragmentDestination") && !strings.Contains(inst.InstanceName, "FragmentProcessor") {
			continue
		}
		f, ok := b.doc.Fragment(inst.UIInfo.FragmentInstanceID)
		if !ok || len(f.Stages) == 0 {
			continue
		}
		f.Stages[0].InputLanes = append([]string{}, inst.InputLanes...)
	}
}
