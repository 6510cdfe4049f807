package definitions

import (
	"github.com/vk/stagegraph/internal/pipeerr"
)

// StageType resolves a selector type (origin, destination, processor,
// executor) to the engine stage type. Unknown values pass through unchanged.
func StageType(t string) string {
	if mapped, ok := stageTypeAliases[t]; ok {
		return mapped
	}
	return t
}

// Service returns the first service definition providing name.
func (d *Definitions) Service(name string) (*ServiceDefinition, error) {
	for _, s := range d.Services {
		if s.Provides == name {
			return s, nil
		}
	}
	return nil, &pipeerr.NotFoundError{Kind: "service definition", Name: name}
}

// Stage returns the stage definition with the given engine name.
func (d *Definitions) Stage(name string) (*StageDefinition, error) {
	for _, s := range d.Stages {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, &pipeerr.NotFoundError{Kind: "stage definition", Name: name}
}

// Select returns every stage definition matching sel that also satisfies
// keep, in catalog order. A nil keep accepts everything.
func (d *Definitions) Select(sel Selector, keep func(*StageDefinition) bool) ([]*StageDefinition, error) {
	if sel.Label != "" && sel.Name != "" {
		return nil, &pipeerr.StructuralError{Reason: "use label or name to select a stage, not both"}
	}
	if sel.Label == "" && sel.Name == "" {
		return nil, &pipeerr.StructuralError{Reason: "either label or name must be specified to select a stage"}
	}

	wantType := StageType(sel.Type)
	var out []*StageDefinition
	for _, s := range d.Stages {
		if sel.Label != "" && s.Label != sel.Label {
			continue
		}
		if sel.Name != "" && s.Name != sel.Name {
			continue
		}
		if sel.Library != "" && s.Library != sel.Library {
			continue
		}
		if wantType != "" && s.Type != wantType {
			continue
		}
		if keep != nil && !keep(s) {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		key := sel.Label
		if key == "" {
			key = sel.Name
		}
		return nil, &pipeerr.NotFoundError{Kind: "stage definition", Name: key}
	}
	return out, nil
}

// SelectFirst returns the first match of Select. Ambiguity is resolved by
// catalog order rather than reported.
func (d *Definitions) SelectFirst(sel Selector, keep func(*StageDefinition) bool) (*StageDefinition, error) {
	matches, err := d.Select(sel, keep)
	if err != nil {
		return nil, err
	}
	return matches[0], nil
}

// PipelineConfigDefinitions returns the configuration schema of a pipeline or,
// when fragment is set, of a pipeline fragment. Fragments fall back to the
// pipeline schema when the engine publishes none.
func (d *Definitions) PipelineConfigDefinitions(fragment bool) []*ConfigDefinition {
	if fragment && len(d.PipelineFragment) > 0 {
		return d.PipelineFragment[0].ConfigDefinitions
	}
	if len(d.Pipeline) > 0 {
		return d.Pipeline[0].ConfigDefinitions
	}
	return nil
}
