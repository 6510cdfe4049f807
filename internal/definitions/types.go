package definitions

import (
	"github.com/vk/stagegraph/internal/confmap"
)

// Engine stage types.
const (
	TypeSource    = "SOURCE"
	TypeProcessor = "PROCESSOR"
	TypeTarget    = "TARGET"
	TypeExecutor  = "EXECUTOR"
)

// Configuration definition types that receive special default handling.
const (
	ConfigBoolean = "BOOLEAN"
	ConfigList    = "LIST"
	ConfigMap     = "MAP"
	ConfigModel   = "MODEL"
)

// Model types that receive special default handling.
const (
	ModelFieldSelectorMultiValue = "FIELD_SELECTOR_MULTI_VALUE"
	ModelListBean                = "LIST_BEAN"
)

// stageTypeAliases maps the friendly selector names to engine stage types.
var stageTypeAliases = map[string]string{
	"origin":      TypeSource,
	"destination": TypeTarget,
	"executor":    TypeExecutor,
	"processor":   TypeProcessor,
}

// Definitions is the complete catalog returned by the engine for one session.
type Definitions struct {
	Stages           []*StageDefinition    `json:"stages"`
	Services         []*ServiceDefinition  `json:"services"`
	Pipeline         []*PipelineDefinition `json:"pipeline"`
	PipelineFragment []*PipelineDefinition `json:"pipelineFragment"`
}

// StageDefinition describes one stage template.
type StageDefinition struct {
	Name                   string               `json:"name"`
	Label                  string               `json:"label"`
	Description            string               `json:"description"`
	Type                   string               `json:"type"`
	Library                string               `json:"library"`
	Version                string               `json:"version"`
	ConfigDefinitions      []*ConfigDefinition  `json:"configDefinitions"`
	Services               []*ServiceDependency `json:"services"`
	ErrorStage             bool                 `json:"errorStage"`
	StatsAggregatorStage   bool                 `json:"statsAggregatorStage"`
	PipelineLifecycleStage bool                 `json:"pipelineLifecycleStage"`
}

// ServiceDependency is a service a stage consumes, with the RUNTIME values the
// stage injects into that service's configuration.
type ServiceDependency struct {
	Service       string          `json:"service"`
	Configuration []confmap.Entry `json:"configuration"`
}

// ServiceDefinition describes a pluggable service implementation.
type ServiceDefinition struct {
	Provides          string              `json:"provides"`
	Version           string              `json:"version"`
	ConfigDefinitions []*ConfigDefinition `json:"configDefinitions"`
}

// PipelineDefinition holds the configuration schema of a pipeline or fragment.
type PipelineDefinition struct {
	ConfigDefinitions []*ConfigDefinition `json:"configDefinitions"`
}

// ConfigDefinition describes one configurable property.
type ConfigDefinition struct {
	Name      string           `json:"name"`
	FieldName string           `json:"fieldName"`
	Label     string           `json:"label"`
	Type      string           `json:"type"`
	Default   any              `json:"defaultValue"`
	Model     *ModelDefinition `json:"model,omitempty"`
}

// ModelDefinition describes structured MODEL-typed configuration.
type ModelDefinition struct {
	ModelType         string              `json:"modelType"`
	ConfigDefinitions []*ConfigDefinition `json:"configDefinitions"`
}

// Selector picks a stage definition. Exactly one of Label and Name must be set.
type Selector struct {
	Label   string
	Name    string
	Type    string
	Library string
}
