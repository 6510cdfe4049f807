package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/stagegraph/internal/config"
	"github.com/vk/stagegraph/internal/definitions"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/zclconf/go-cty/cty"
)

// translatePipeline converts a pipeline block into the agnostic model.
func translatePipeline(p *pipelineBlock, dir string) (*config.Blueprint, error) {
	content, diags := p.Body.Content(pipelineSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	bp := &config.Blueprint{Title: p.Title}
	ectx := evalContext(cty.NilVal)

	if attr, ok := content.Attributes["parameters"]; ok {
		params, val, err := evalMap(attr.Expr, ectx)
		if err != nil {
			return nil, fmt.Errorf("parameters: %w", err)
		}
		bp.Parameters = params
		ectx = evalContext(val)
	}
	if attr, ok := content.Attributes["description"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, ectx, &bp.Description); diags.HasErrors() {
			return nil, diags
		}
	}
	if attr, ok := content.Attributes["as_fragment"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, ectx, &bp.Fragment); diags.HasErrors() {
			return nil, diags
		}
	}

	names := make(map[string]hcl.Range)
	for _, block := range content.Blocks {
		if len(block.Labels) > 0 && (block.Type == blockStage || block.Type == blockFragment) {
			name := block.Labels[0]
			if prev, dup := names[name]; dup {
				return nil, &pipeerr.StructuralError{
					Reason: fmt.Sprintf("%s: %s %q is already declared at %s", block.DefRange, block.Type, name, prev),
				}
			}
			names[name] = block.DefRange
		}

		if err := translateBlock(bp, block, ectx, dir); err != nil {
			return nil, fmt.Errorf("%s %s: %w", block.Type, block.DefRange, err)
		}
	}
	return bp, nil
}

func translateBlock(bp *config.Blueprint, block *hcl.Block, ectx *hcl.EvalContext, dir string) error {
	switch block.Type {
	case blockStage:
		var body stageBody
		if err := decode(block.Body, ectx, &body); err != nil {
			return err
		}
		attrs, _, err := evalMap(body.Attributes, ectx)
		if err != nil {
			return err
		}
		bp.Nodes = append(bp.Nodes, &config.Node{
			Name:        block.Labels[0],
			Selector:    selector(body.DefinitionLabel, body.DefinitionName, body.Type, body.Library),
			Label:       body.UILabel,
			Description: body.Description,
			Attributes:  attrs,
			Outputs:     outputs(body.Outputs),
			Events:      body.Events,
		})

	case blockFragment:
		var body fragmentBody
		if err := decode(block.Body, ectx, &body); err != nil {
			return err
		}
		bp.Nodes = append(bp.Nodes, &config.Node{
			Name: block.Labels[0],
			Fragment: &config.FragmentRef{
				Path:            body.Path,
				Dir:             dir,
				ParameterPrefix: body.ParameterPrefix,
				CommitID:        body.CommitID,
				Version:         body.Version,
			},
			Label:       body.UILabel,
			Description: body.Description,
			Outputs:     outputs(body.Outputs),
		})

	case blockErrorStage, blockStartEventStage, blockStopEventStage, blockStatsAggregator, blockTestOrigin:
		var body specialBody
		if err := decode(block.Body, ectx, &body); err != nil {
			return err
		}
		attrs, _, err := evalMap(body.Attributes, ectx)
		if err != nil {
			return err
		}
		special := &config.Special{
			Selector:   selector(body.DefinitionLabel, body.DefinitionName, body.Type, body.Library),
			Attributes: attrs,
		}
		slot := specialSlot(bp, block.Type)
		if *slot != nil {
			return &pipeerr.StructuralError{Reason: "declared more than once"}
		}
		*slot = special

	case blockDataRule, blockDriftRule:
		var body laneRuleBody
		if err := decode(block.Body, ectx, &body); err != nil {
			return err
		}
		rule := &config.LaneRule{
			Label:         block.Labels[0],
			From:          body.From,
			Lane:          body.Lane,
			Condition:     body.Condition,
			AlertText:     body.AlertText,
			ThresholdType: body.ThresholdType,
			Threshold:     body.Threshold,
			Enabled:       body.Enabled,
		}
		if block.Type == blockDataRule {
			bp.DataRules = append(bp.DataRules, rule)
		} else {
			bp.DriftRules = append(bp.DriftRules, rule)
		}

	case blockMetricRule:
		var body metricRuleBody
		if err := decode(block.Body, ectx, &body); err != nil {
			return err
		}
		bp.MetricRules = append(bp.MetricRules, &config.MetricRule{
			AlertText:     block.Labels[0],
			MetricID:      body.MetricID,
			MetricElement: body.MetricElement,
			Condition:     body.Condition,
			Enabled:       body.Enabled,
		})
	}
	return nil
}

func specialSlot(bp *config.Blueprint, blockType string) **config.Special {
	switch blockType {
	case blockErrorStage:
		return &bp.ErrorStage
	case blockStartEventStage:
		return &bp.StartEventStage
	case blockStopEventStage:
		return &bp.StopEventStage
	case blockStatsAggregator:
		return &bp.StatsAggregatorStage
	default:
		return &bp.TestOriginStage
	}
}

func selector(label, name, stageType, library string) definitions.Selector {
	return definitions.Selector{Label: label, Name: name, Type: stageType, Library: library}
}

func outputs(blocks []*outputBody) [][]string {
	var out [][]string
	for _, o := range blocks {
		out = append(out, o.To)
	}
	return out
}
