package config

import (
	"github.com/vk/stagegraph/internal/definitions"
)

// Blueprint is the unified, format-agnostic description of one pipeline or
// pipeline fragment.
type Blueprint struct {
	Title       string
	Description string
	Fragment    bool
	// Parameters become the pipeline constants, added in key order.
	Parameters map[string]any

	// Nodes are the graph stages and merged fragments in declaration order.
	Nodes []*Node

	ErrorStage           *Special
	StartEventStage      *Special
	StopEventStage       *Special
	StatsAggregatorStage *Special
	TestOriginStage      *Special

	DataRules   []*LaneRule
	DriftRules  []*LaneRule
	MetricRules []*MetricRule
}

// Node is one vertex of the blueprint graph: either a stage selected from the
// definitions or a fragment merged from disk.
type Node struct {
	// Name identifies the node inside the blueprint; it is not the instance
	// name of the resulting stage.
	Name     string
	Selector definitions.Selector
	Fragment *FragmentRef

	Label       string
	Description string
	Attributes  map[string]any

	// Outputs lists one entry per output lane, each naming the nodes the lane
	// feeds.
	Outputs [][]string
	// Events names the nodes fed by the event lane.
	Events []string
}

// IsFragment reports whether the node stands for a merged fragment.
func (n *Node) IsFragment() bool { return n.Fragment != nil }

// FragmentRef points at a built fragment export.
type FragmentRef struct {
	Path string
	// Dir is the directory of the file declaring the reference; relative
	// paths are resolved against it.
	Dir             string
	ParameterPrefix string
	CommitID        string
	Version         string
}

// Special configures one of the pipeline's special stages.
type Special struct {
	Selector   definitions.Selector
	Attributes map[string]any
}

// LaneRule is a data or drift rule attached to an output lane of a node.
type LaneRule struct {
	Label         string
	From          string
	Lane          int
	Condition     string
	AlertText     string
	ThresholdType string
	Threshold     *int
	Enabled       bool
}

// MetricRule alerts on a pipeline metric.
type MetricRule struct {
	AlertText     string
	MetricID      string
	MetricElement string
	Condition     string
	Enabled       bool
}
