package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/vk/stagegraph/internal/confmap"
	"github.com/vk/stagegraph/internal/pipeerr"
)

// Stage type names as stored in StageInstance.UIInfo.StageType.
const (
	StageTypeSource    = "SOURCE"
	StageTypeProcessor = "PROCESSOR"
	StageTypeTarget    = "TARGET"
	StageTypeExecutor  = "EXECUTOR"
)

// Configuration keys of the pipeline configuration.
const (
	ConfigConstants            = "constants"
	ConfigBadRecordsHandling   = "badRecordsHandling"
	ConfigStartEventStage      = "startEventStage"
	ConfigStopEventStage       = "stopEventStage"
	ConfigStatsAggregatorStage = "statsAggregatorStage"
	ConfigTestOriginStage      = "testOriginStage"
)

// Document is a pipeline or pipeline fragment.
type Document struct {
	SchemaVersion int    `json:"schemaVersion"`
	Version       int    `json:"version,omitempty"`
	PipelineID    string `json:"pipelineId,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Info          Info   `json:"info"`

	Configuration confmap.Map    `json:"configuration"`
	UIInfo        DocumentUIInfo `json:"uiInfo"`

	Stages               []*StageInstance `json:"stages"`
	ErrorStage           *StageInstance   `json:"errorStage"`
	StatsAggregatorStage *StageInstance   `json:"statsAggregatorStage"`
	StartEventStages     []*StageInstance `json:"startEventStages"`
	StopEventStages      []*StageInstance `json:"stopEventStages"`
	TestOriginStage      *StageInstance   `json:"testOriginStage,omitempty"`

	Metadata  Metadata    `json:"metadata"`
	Fragments []*Document `json:"fragments"`

	FragmentID         string `json:"fragmentId,omitempty"`
	FragmentInstanceID string `json:"fragmentInstanceId,omitempty"`
}

// Info identifies the document.
type Info struct {
	Name        string `json:"name"`
	PipelineID  string `json:"pipelineId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DocumentUIInfo holds document-level presentation metadata. Fragments keep
// their synthetic boundary stage here.
type DocumentUIInfo struct {
	FragmentStageConfiguration *StageInstance `json:"fragmentStageConfiguration,omitempty"`
}

// Metadata carries the document labels.
type Metadata struct {
	Labels []string `json:"labels"`
}

// ID returns the document id. Schema versions above 2 keep it in
// info.pipelineId, older ones in info.name.
func (d *Document) ID() string {
	if d.SchemaVersion > 2 {
		return d.Info.PipelineID
	}
	return d.Info.Name
}

// SetID stores id in info.name and, for schema versions above 2, in
// info.pipelineId and the top-level pipelineId.
func (d *Document) SetID(id string) {
	d.Info.Name = id
	if d.SchemaVersion > 2 {
		d.Info.PipelineID = id
		d.PipelineID = id
	}
}

// SetTitle stores the title on the document and its info block.
func (d *Document) SetTitle(title string) {
	d.Title = title
	d.Info.Title = title
}

// Clone returns a deep copy made through the JSON encoding the engine uses.
// Numeric configuration values come back as float64.
func (d *Document) Clone() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to copy document %q: %w", d.Title, err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to copy document %q: %w", d.Title, err)
	}
	return &out, nil
}

// AllStages returns the graph stages followed by every special stage, in
// document order.
func (d *Document) AllStages() []*StageInstance {
	all := make([]*StageInstance, 0, len(d.Stages)+4)
	all = append(all, d.Stages...)
	if d.ErrorStage != nil {
		all = append(all, d.ErrorStage)
	}
	if d.StatsAggregatorStage != nil {
		all = append(all, d.StatsAggregatorStage)
	}
	all = append(all, d.StartEventStages...)
	all = append(all, d.StopEventStages...)
	if d.TestOriginStage != nil {
		all = append(all, d.TestOriginStage)
	}
	return all
}

// Stage returns the graph stage with the given instance name.
func (d *Document) Stage(instanceName string) (*StageInstance, error) {
	for _, s := range d.Stages {
		if s.InstanceName == instanceName {
			return s, nil
		}
	}
	return nil, &pipeerr.NotFoundError{Kind: "stage", Name: instanceName, Scope: d.Title}
}

// StagesOfType returns the graph stages of the given stage type.
func (d *Document) StagesOfType(stageType string) []*StageInstance {
	var out []*StageInstance
	for _, s := range d.Stages {
		if s.UIInfo.StageType == stageType {
			out = append(out, s)
		}
	}
	return out
}

// Fragment returns the merged fragment with the given instance id.
func (d *Document) Fragment(fragmentInstanceID string) (*Document, bool) {
	for _, f := range d.Fragments {
		if f.FragmentInstanceID == fragmentInstanceID {
			return f, true
		}
	}
	return nil, false
}
