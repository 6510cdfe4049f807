// Package stage creates stage instances from their definitions and wraps them
// in the Stage façade used to wire lanes and edit configuration.
package stage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/stagegraph/internal/definitions"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
)

// MaxInstances bounds the numeric suffixes tried for one instance name.
const MaxInstances = 1000

var nonIdentifier = regexp.MustCompile(`[^0-9A-Za-z_]`)

// Factory materializes new stage instances.
type Factory struct {
	defs *definitions.Definitions
}

// NewFactory returns a factory resolving services against defs.
func NewFactory(defs *definitions.Definitions) *Factory {
	return &Factory{defs: defs}
}

// Create returns a fresh instance of sd. existing holds every stage already
// in the document and keeps instance names unique; graph holds the graph
// stages only, which number the new label.
func (f *Factory) Create(sd *definitions.StageDefinition, existing, graph []*pipeline.StageInstance) (*pipeline.StageInstance, error) {
	name, err := InstanceName(sd, existing)
	if err != nil {
		return nil, err
	}

	inst := &pipeline.StageInstance{
		InstanceName:  name,
		Library:       sd.Library,
		StageName:     sd.Name,
		StageVersion:  sd.Version,
		Configuration: definitions.Defaults(sd.ConfigDefinitions),
		Services:      []*pipeline.Service{},
		UIInfo: pipeline.UIInfo{
			Label:     Label(sd, graph),
			StageType: sd.Type,
		},
		InputLanes:  []string{},
		OutputLanes: []string{},
		EventLanes:  []string{},
	}

	for _, dep := range sd.Services {
		found := false
		for _, svc := range f.defs.Services {
			if svc.Provides != dep.Service {
				continue
			}
			found = true
			cfg := definitions.Defaults(svc.ConfigDefinitions)
			cfg.Merge(dep.Configuration)
			inst.Services = append(inst.Services, &pipeline.Service{
				Service:        svc.Provides,
				ServiceVersion: svc.Version,
				Configuration:  cfg,
			})
		}
		if !found {
			return nil, fmt.Errorf("stage %s: %w", sd.Name, &pipeerr.NotFoundError{Kind: "service definition", Name: dep.Service})
		}
	}
	return inst, nil
}

// InstanceName returns the instance name for a new instance of sd. Error and
// stats aggregator stages get fixed suffixes; every other stage gets the
// first free "_NN" suffix.
func InstanceName(sd *definitions.StageDefinition, existing []*pipeline.StageInstance) (string, error) {
	base := nonIdentifier.ReplaceAllString(sd.Label, "")
	switch {
	case sd.ErrorStage:
		return base + "_ErrorStage", nil
	case sd.StatsAggregatorStage:
		return base + "_StatsAggregatorStage", nil
	}

	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s.InstanceName] = struct{}{}
	}
	for i := 1; i <= MaxInstances; i++ {
		candidate := fmt.Sprintf("%s_%02d", base, i)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
	return "", &pipeerr.ExhaustedNamespaceError{Prefix: base, Limit: MaxInstances}
}

// Label returns the UI label for a new instance of sd, numbering it after the
// existing stages whose label already contains the definition label.
func Label(sd *definitions.StageDefinition, existing []*pipeline.StageInstance) string {
	switch {
	case sd.ErrorStage:
		return "Error Records - " + sd.Label
	case sd.StatsAggregatorStage:
		return "Stats Aggregator - " + sd.Label
	}

	similar := 0
	for _, s := range existing {
		if strings.Contains(s.UIInfo.Label, sd.Label) {
			similar++
		}
	}
	return fmt.Sprintf("%s %d", sd.Label, similar+1)
}
