package pipeline

import (
	"github.com/vk/stagegraph/internal/confmap"
	"github.com/vk/stagegraph/internal/pipeerr"
)

// StageInstance is one node of the pipeline graph as the engine stores it.
type StageInstance struct {
	InstanceName  string      `json:"instanceName"`
	Library       string      `json:"library"`
	StageName     string      `json:"stageName"`
	StageVersion  string      `json:"stageVersion"`
	Configuration confmap.Map `json:"configuration"`
	Services      []*Service  `json:"services"`
	UIInfo        UIInfo      `json:"uiInfo"`
	InputLanes    []string    `json:"inputLanes"`
	OutputLanes   []string    `json:"outputLanes"`
	EventLanes    []string    `json:"eventLanes"`
}

// Service is the configuration of one service attached to a stage.
type Service struct {
	Service        string      `json:"service"`
	ServiceVersion string      `json:"serviceVersion"`
	Configuration  confmap.Map `json:"configuration"`
}

// UIInfo carries presentation metadata. Positions stay null until the layout
// pass assigns them.
type UIInfo struct {
	Description string `json:"description"`
	Label       string `json:"label"`
	XPos        *int   `json:"xPos"`
	YPos        *int   `json:"yPos"`
	StageType   string `json:"stageType"`

	FragmentID          string `json:"fragmentId,omitempty"`
	FragmentInstanceID  string `json:"fragmentInstanceId,omitempty"`
	FragmentGroupStage  bool   `json:"fragmentGroupStage,omitempty"`
	FragmentName        string `json:"fragmentName,omitempty"`
	PipelineCommitID    string `json:"pipelineCommitId,omitempty"`
	PipelineCommitLabel string `json:"pipelineCommitLabel,omitempty"`
	PipelineID          string `json:"pipelineId,omitempty"`
}

// Service returns the configuration of the named attached service.
func (s *StageInstance) Service(name string) (*confmap.Map, error) {
	for _, svc := range s.Services {
		if svc.Service == name {
			return &svc.Configuration, nil
		}
	}
	return nil, &pipeerr.NotFoundError{Kind: "service", Name: name, Scope: s.InstanceName}
}

// HasService reports whether the named service is attached.
func (s *StageInstance) HasService(name string) bool {
	_, err := s.Service(name)
	return err == nil
}

// ConfigurationName is the "<library>::<stageName>::<stageVersion>" reference
// the pipeline configuration uses to point at special stages.
func (s *StageInstance) ConfigurationName() string {
	return s.Library + "::" + s.StageName + "::" + s.StageVersion
}

// Position returns the layout coordinates, or ok=false when unset.
func (s *StageInstance) Position() (x, y int, ok bool) {
	if s.UIInfo.XPos == nil || s.UIInfo.YPos == nil {
		return 0, 0, false
	}
	return *s.UIInfo.XPos, *s.UIInfo.YPos, true
}

// SetPosition stores layout coordinates.
func (s *StageInstance) SetPosition(x, y int) {
	s.UIInfo.XPos = &x
	s.UIInfo.YPos = &y
}
