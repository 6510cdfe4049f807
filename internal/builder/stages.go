package builder

import (
	"context"
	"fmt"

	"github.com/vk/stagegraph/internal/ctxlog"
	"github.com/vk/stagegraph/internal/definitions"
	"github.com/vk/stagegraph/internal/fragment"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
	"github.com/vk/stagegraph/internal/stage"
)

// newInstance selects the first definition matching sel and keep and
// materializes an instance of it whose name is unique among every stage of
// the document and whose label is numbered among the graph stages.
func (b *Builder) newInstance(sel definitions.Selector, keep func(*definitions.StageDefinition) bool) (*pipeline.StageInstance, error) {
	sd, err := b.defs.SelectFirst(sel, keep)
	if err != nil {
		return nil, err
	}
	return b.factory.Create(sd, b.doc.AllStages(), b.doc.Stages)
}

// AddStage appends a graph stage. Error stage definitions are skipped, and
// the first remaining match of sel is used.
func (b *Builder) AddStage(ctx context.Context, sel definitions.Selector) (*stage.Stage, error) {
	inst, err := b.newInstance(sel, func(sd *definitions.StageDefinition) bool { return !sd.ErrorStage })
	if err != nil {
		return nil, fmt.Errorf("failed to add stage: %w", err)
	}
	b.doc.Stages = append(b.doc.Stages, inst)

	ctxlog.FromContext(ctx).Debug("Stage added.", "stage", inst.InstanceName, "type", inst.UIInfo.StageType)
	return b.wrap(inst), nil
}

// AddErrorStage sets the stage receiving error records.
func (b *Builder) AddErrorStage(ctx context.Context, sel definitions.Selector) (*stage.Stage, error) {
	inst, err := b.newInstance(sel, func(sd *definitions.StageDefinition) bool { return sd.ErrorStage })
	if err != nil {
		return nil, fmt.Errorf("failed to add error stage: %w", err)
	}
	b.doc.ErrorStage = inst
	return b.special(ctx, inst, pipeline.ConfigBadRecordsHandling)
}

// AddStartEventStage sets the executor run when the pipeline starts.
func (b *Builder) AddStartEventStage(ctx context.Context, sel definitions.Selector) (*stage.Stage, error) {
	inst, err := b.newInstance(sel, func(sd *definitions.StageDefinition) bool { return sd.PipelineLifecycleStage })
	if err != nil {
		return nil, fmt.Errorf("failed to add start event stage: %w", err)
	}
	b.doc.StartEventStages = []*pipeline.StageInstance{inst}
	return b.special(ctx, inst, pipeline.ConfigStartEventStage)
}

// AddStopEventStage sets the executor run when the pipeline stops.
func (b *Builder) AddStopEventStage(ctx context.Context, sel definitions.Selector) (*stage.Stage, error) {
	inst, err := b.newInstance(sel, func(sd *definitions.StageDefinition) bool { return sd.PipelineLifecycleStage })
	if err != nil {
		return nil, fmt.Errorf("failed to add stop event stage: %w", err)
	}
	b.doc.StopEventStages = []*pipeline.StageInstance{inst}
	return b.special(ctx, inst, pipeline.ConfigStopEventStage)
}

// AddStatsAggregatorStage sets the stage receiving pipeline statistics.
func (b *Builder) AddStatsAggregatorStage(ctx context.Context, sel definitions.Selector) (*stage.Stage, error) {
	inst, err := b.newInstance(sel, func(sd *definitions.StageDefinition) bool { return sd.StatsAggregatorStage })
	if err != nil {
		return nil, fmt.Errorf("failed to add stats aggregator stage: %w", err)
	}
	b.doc.StatsAggregatorStage = inst
	return b.special(ctx, inst, pipeline.ConfigStatsAggregatorStage)
}

// AddTestOriginStage sets the origin used for previews. Engines up to 3.3.0
// do not support test origins.
func (b *Builder) AddTestOriginStage(ctx context.Context, sel definitions.Selector) (*stage.Stage, error) {
	if b.engine != nil && !b.engine.GreaterThan(minTestOriginVersion) {
		return nil, &pipeerr.StructuralError{
			Reason: fmt.Sprintf("test origin stage is not supported for engine version %s", b.engine),
		}
	}
	inst, err := b.newInstance(sel, func(sd *definitions.StageDefinition) bool { return sd.Type == definitions.TypeSource })
	if err != nil {
		return nil, fmt.Errorf("failed to add test origin stage: %w", err)
	}
	b.doc.TestOriginStage = inst
	return b.special(ctx, inst, pipeline.ConfigTestOriginStage)
}

// special points the pipeline configuration key at inst.
func (b *Builder) special(ctx context.Context, inst *pipeline.StageInstance, configKey string) (*stage.Stage, error) {
	if err := b.doc.Configuration.Set(configKey, inst.ConfigurationName()); err != nil {
		return nil, fmt.Errorf("failed to reference %s: %w", inst.InstanceName, err)
	}
	ctxlog.FromContext(ctx).Debug("Special stage set.", "stage", inst.InstanceName, "config", configKey)
	return b.wrap(inst), nil
}

// AddFragment merges a built fragment and returns the group stage standing
// for it, ready to be wired like any other stage.
func (b *Builder) AddFragment(ctx context.Context, frag *pipeline.Document, opts fragment.MergeOptions) (*stage.Stage, error) {
	if len(frag.Metadata.Labels) == 0 || frag.Metadata.Labels[0] == "" {
		return nil, &pipeerr.MalformedError{Subject: fmt.Sprintf("fragment %q", frag.Title), Reason: "has no category label, build it first"}
	}
	label := pipeline.FragmentStageLabel(frag.Metadata.Labels[0])

	group, err := b.newInstance(definitions.Selector{Label: label}, func(sd *definitions.StageDefinition) bool { return !sd.ErrorStage })
	if err != nil {
		return nil, fmt.Errorf("failed to add fragment %q: %w", frag.Title, err)
	}
	if _, err := b.composer.Merge(ctx, b.doc, frag, group, opts); err != nil {
		return nil, fmt.Errorf("failed to add fragment %q: %w", frag.Title, err)
	}
	b.fragmentCommitIDs = append(b.fragmentCommitIDs, opts.CommitID)
	return b.wrap(group), nil
}

// AddDataRule appends data rules.
func (b *Builder) AddDataRule(rules ...*pipeline.DataRule) {
	for _, r := range rules {
		r.Normalize()
		b.rules.DataRuleDefinitions = append(b.rules.DataRuleDefinitions, r)
	}
}

// AddDataDriftRule appends data drift rules.
func (b *Builder) AddDataDriftRule(rules ...*pipeline.DataDriftRule) {
	b.rules.DriftRuleDefinitions = append(b.rules.DriftRuleDefinitions, rules...)
}

// AddMetricRule appends metric rules.
func (b *Builder) AddMetricRule(rules ...*pipeline.MetricRule) {
	b.rules.MetricsRuleDefinitions = append(b.rules.MetricsRuleDefinitions, rules...)
}
