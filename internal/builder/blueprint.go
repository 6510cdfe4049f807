package builder

import (
	"context"
	"fmt"

	"github.com/vk/stagegraph/internal/config"
	"github.com/vk/stagegraph/internal/ctxlog"
	"github.com/vk/stagegraph/internal/definitions"
	"github.com/vk/stagegraph/internal/fragment"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
	"github.com/vk/stagegraph/internal/stage"
)

// FragmentReader returns the built fragment a blueprint node refers to.
type FragmentReader func(ctx context.Context, ref *config.FragmentRef) (*pipeline.Document, error)

// Apply adds everything bp declares. Nodes are created in declaration order
// so the layout follows the blueprint, then special stages are set, then
// lanes are wired and finally rules are attached to the wired lanes.
func (b *Builder) Apply(ctx context.Context, bp *config.Blueprint, readFragment FragmentReader) error {
	logger := ctxlog.FromContext(ctx).With("blueprint", bp.Title)
	logger.Debug("Apply: Starting.", "nodes", len(bp.Nodes))

	if bp.Fragment != b.fragment {
		return &pipeerr.StructuralError{
			Reason: fmt.Sprintf("blueprint %q has fragment=%t, the builder has fragment=%t", bp.Title, bp.Fragment, b.fragment),
		}
	}
	if b.doc.Description == "" {
		b.doc.Description = bp.Description
		b.doc.Info.Description = bp.Description
	}
	if len(bp.Parameters) > 0 {
		if err := b.AddParameters(bp.Parameters); err != nil {
			return fmt.Errorf("failed to add parameters: %w", err)
		}
	}

	nodes := make(map[string]*stage.Stage, len(bp.Nodes))
	for _, n := range bp.Nodes {
		s, err := b.applyNode(ctx, n, readFragment)
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
		nodes[n.Name] = s
	}

	specials := []struct {
		special *config.Special
		add     func(context.Context, definitions.Selector) (*stage.Stage, error)
	}{
		{bp.ErrorStage, b.AddErrorStage},
		{bp.StartEventStage, b.AddStartEventStage},
		{bp.StopEventStage, b.AddStopEventStage},
		{bp.StatsAggregatorStage, b.AddStatsAggregatorStage},
		{bp.TestOriginStage, b.AddTestOriginStage},
	}
	for _, sp := range specials {
		if sp.special == nil {
			continue
		}
		s, err := sp.add(ctx, sp.special.Selector)
		if err != nil {
			return err
		}
		if err := s.SetAttributes(sp.special.Attributes); err != nil {
			return fmt.Errorf("%s: %w", s.InstanceName(), err)
		}
	}

	for _, n := range bp.Nodes {
		if err := wire(nodes, n); err != nil {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
	}

	if err := b.applyRules(bp, nodes); err != nil {
		return err
	}

	logger.Debug("Apply: Finished.", "stages", len(b.doc.Stages), "fragments", len(b.doc.Fragments))
	return nil
}

func (b *Builder) applyNode(ctx context.Context, n *config.Node, readFragment FragmentReader) (*stage.Stage, error) {
	var (
		s   *stage.Stage
		err error
	)
	if n.IsFragment() {
		if readFragment == nil {
			return nil, &pipeerr.StructuralError{Reason: "fragments cannot be read in this context"}
		}
		frag, err := readFragment(ctx, n.Fragment)
		if err != nil {
			return nil, err
		}
		s, err = b.AddFragment(ctx, frag, fragment.MergeOptions{
			ParameterPrefix: n.Fragment.ParameterPrefix,
			CommitID:        n.Fragment.CommitID,
			Version:         n.Fragment.Version,
		})
		if err != nil {
			return nil, err
		}
	} else {
		s, err = b.AddStage(ctx, n.Selector)
		if err != nil {
			return nil, err
		}
		if err := s.SetAttributes(n.Attributes); err != nil {
			return nil, fmt.Errorf("%s: %w", s.InstanceName(), err)
		}
	}

	if n.Label != "" {
		s.SetLabel(n.Label)
	}
	if n.Description != "" {
		s.SetDescription(n.Description)
	}
	return s, nil
}

// wire connects one lane per declared output and the event lane of n.
func wire(nodes map[string]*stage.Stage, n *config.Node) error {
	from := nodes[n.Name]
	for _, to := range n.Outputs {
		targets, err := resolve(nodes, to)
		if err != nil {
			return err
		}
		if _, err := from.Connect(false, targets...); err != nil {
			return err
		}
	}
	if len(n.Events) > 0 {
		targets, err := resolve(nodes, n.Events)
		if err != nil {
			return err
		}
		if _, err := from.Connect(true, targets...); err != nil {
			return err
		}
	}
	return nil
}

func resolve(nodes map[string]*stage.Stage, names []string) ([]*stage.Stage, error) {
	out := make([]*stage.Stage, 0, len(names))
	for _, name := range names {
		s, ok := nodes[name]
		if !ok {
			return nil, &pipeerr.NotFoundError{Kind: "node", Name: name, Scope: "blueprint"}
		}
		out = append(out, s)
	}
	return out, nil
}

func ruleLane(nodes map[string]*stage.Stage, r *config.LaneRule) (string, error) {
	s, ok := nodes[r.From]
	if !ok {
		return "", &pipeerr.NotFoundError{Kind: "node", Name: r.From, Scope: "rule " + r.Label}
	}
	lanes := s.OutputLanes()
	if r.Lane < 0 || r.Lane >= len(lanes) {
		return "", &pipeerr.MalformedError{
			Subject: "rule " + r.Label,
			Reason:  fmt.Sprintf("stage %s has %d output lanes, lane %d requested", s.InstanceName(), len(lanes), r.Lane),
		}
	}
	return lanes[r.Lane], nil
}

func (b *Builder) applyRules(bp *config.Blueprint, nodes map[string]*stage.Stage) error {
	for _, r := range bp.DataRules {
		lane, err := ruleLane(nodes, r)
		if err != nil {
			return err
		}
		rule := pipeline.NewDataRule(lane, r.Label, r.Condition)
		rule.AlertText = r.AlertText
		rule.Enabled = r.Enabled
		if r.ThresholdType != "" {
			rule.ThresholdType = r.ThresholdType
		}
		if r.Threshold != nil {
			rule.ThresholdValue = *r.Threshold
		}
		b.AddDataRule(rule)
	}

	for _, r := range bp.DriftRules {
		lane, err := ruleLane(nodes, r)
		if err != nil {
			return err
		}
		rule := pipeline.NewDataDriftRule(lane, r.Label, r.Condition)
		if r.AlertText != "" {
			rule.AlertText = r.AlertText
		}
		rule.Enabled = r.Enabled
		b.AddDataDriftRule(rule)
	}

	for _, r := range bp.MetricRules {
		rule := pipeline.NewMetricRule(r.AlertText, r.MetricID, r.MetricElement)
		if r.Condition != "" {
			rule.Condition = r.Condition
		}
		rule.Enabled = r.Enabled
		b.AddMetricRule(rule)
	}
	return nil
}
