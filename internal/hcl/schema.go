package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes the top level of any blueprint file.
type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type pipelineBlock struct {
	Title string   `hcl:"title,label"`
	Body  hcl.Body `hcl:",remain"`
}

const (
	blockStage           = "stage"
	blockFragment        = "fragment"
	blockErrorStage      = "error_stage"
	blockStartEventStage = "start_event_stage"
	blockStopEventStage  = "stop_event_stage"
	blockStatsAggregator = "stats_aggregator_stage"
	blockTestOrigin      = "test_origin_stage"
	blockDataRule        = "data_rule"
	blockDriftRule       = "drift_rule"
	blockMetricRule      = "metric_rule"
)

// pipelineSchema is decoded by hand so stages and fragments keep their
// declaration order across block types.
var pipelineSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "as_fragment"},
		{Name: "parameters"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: blockStage, LabelNames: []string{"name"}},
		{Type: blockFragment, LabelNames: []string{"name"}},
		{Type: blockErrorStage},
		{Type: blockStartEventStage},
		{Type: blockStopEventStage},
		{Type: blockStatsAggregator},
		{Type: blockTestOrigin},
		{Type: blockDataRule, LabelNames: []string{"label"}},
		{Type: blockDriftRule, LabelNames: []string{"label"}},
		{Type: blockMetricRule, LabelNames: []string{"alert_text"}},
	},
}

// stageBody selects a stage definition by label or name.
type stageBody struct {
	DefinitionLabel string         `hcl:"label,optional"`
	DefinitionName  string         `hcl:"name,optional"`
	Type            string         `hcl:"type,optional"`
	Library         string         `hcl:"library,optional"`
	UILabel         string         `hcl:"ui_label,optional"`
	Description     string         `hcl:"description,optional"`
	Attributes      hcl.Expression `hcl:"attributes,optional"`
	Outputs         []*outputBody  `hcl:"output,block"`
	Events          []string       `hcl:"events,optional"`
}

type outputBody struct {
	To []string `hcl:"to"`
}

type fragmentBody struct {
	Path            string        `hcl:"path"`
	ParameterPrefix string        `hcl:"parameter_prefix,optional"`
	CommitID        string        `hcl:"commit_id,optional"`
	Version         string        `hcl:"version,optional"`
	UILabel         string        `hcl:"ui_label,optional"`
	Description     string        `hcl:"description,optional"`
	Outputs         []*outputBody `hcl:"output,block"`
}

type specialBody struct {
	DefinitionLabel string         `hcl:"label,optional"`
	DefinitionName  string         `hcl:"name,optional"`
	Type            string         `hcl:"type,optional"`
	Library         string         `hcl:"library,optional"`
	Attributes      hcl.Expression `hcl:"attributes,optional"`
}

type laneRuleBody struct {
	From          string `hcl:"from"`
	Lane          int    `hcl:"lane,optional"`
	Condition     string `hcl:"condition"`
	AlertText     string `hcl:"alert_text,optional"`
	ThresholdType string `hcl:"threshold_type,optional"`
	Threshold     *int   `hcl:"threshold,optional"`
	Enabled       bool   `hcl:"enabled,optional"`
}

type metricRuleBody struct {
	MetricID      string `hcl:"metric_id"`
	MetricElement string `hcl:"metric_element"`
	Condition     string `hcl:"condition,optional"`
	Enabled       bool   `hcl:"enabled,optional"`
}
