package stage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/stagegraph/internal/catalog"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
)

// maxAliasDepth bounds alias chains.
const maxAliasDepth = 8

// Stage wraps a stage instance held by a document. Every mutation is applied
// to the wrapped instance in place.
type Stage struct {
	inst      *pipeline.StageInstance
	catalog   *catalog.Catalog
	outputIdx int
}

// New wraps inst. A nil catalog exposes no attributes.
func New(inst *pipeline.StageInstance, cat *catalog.Catalog) *Stage {
	return &Stage{inst: inst, catalog: cat}
}

// Instance returns the wrapped document record.
func (s *Stage) Instance() *pipeline.StageInstance { return s.inst }

func (s *Stage) InstanceName() string { return s.inst.InstanceName }
func (s *Stage) StageName() string    { return s.inst.StageName }
func (s *Stage) StageType() string    { return s.inst.UIInfo.StageType }
func (s *Stage) Label() string        { return s.inst.UIInfo.Label }
func (s *Stage) Description() string  { return s.inst.UIInfo.Description }
func (s *Stage) Library() string      { return s.inst.Library }

func (s *Stage) SetLabel(label string)      { s.inst.UIInfo.Label = label }
func (s *Stage) SetDescription(desc string) { s.inst.UIInfo.Description = desc }
func (s *Stage) SetLibrary(library string)  { s.inst.Library = library }
func (s *Stage) InputLanes() []string       { return s.inst.InputLanes }
func (s *Stage) OutputLanes() []string      { return s.inst.OutputLanes }
func (s *Stage) EventLanes() []string       { return s.inst.EventLanes }

func (s *Stage) String() string {
	return fmt.Sprintf("<Stage (instance_name=%s)>", s.inst.InstanceName)
}

// isFragmentBoundary reports whether the stage stands in for the open end of
// a merged fragment. Such stages own their output lanes before any
// connection is made.
func (s *Stage) isFragmentBoundary() bool {
	return strings.Contains(s.inst.InstanceName, "FragmentOrigin") ||
		strings.Contains(s.inst.InstanceName, "FragmentProcessor")
}

// SkipLanes moves past the leading pre-declared output lanes that consumed
// already holds, so a fragment boundary stage wrapped again after an import
// does not hand them out twice.
func (s *Stage) SkipLanes(consumed map[string]bool) {
	if !s.isFragmentBoundary() {
		return
	}
	for s.outputIdx < len(s.inst.OutputLanes) && consumed[s.inst.OutputLanes[s.outputIdx]] {
		s.outputIdx++
	}
}

// Connect allocates one lane and appends it to the input lanes of every
// target. Regular output lanes are "<instance>OutputLane<uuid>"; the event
// lane is "<instance>_EventLane" and is declared once. Fragment boundary
// stages hand out their pre-declared output lanes in order instead.
func (s *Stage) Connect(event bool, targets ...*Stage) (string, error) {
	var lane string
	switch {
	case s.isFragmentBoundary():
		if s.outputIdx >= len(s.inst.OutputLanes) {
			return "", &pipeerr.StructuralError{
				Reason: fmt.Sprintf("fragment stage %s has no unused output lane left", s.inst.InstanceName),
			}
		}
		lane = s.inst.OutputLanes[s.outputIdx]
		s.outputIdx++
	case event:
		lane = s.inst.InstanceName + "_EventLane"
		if !contains(s.inst.EventLanes, lane) {
			s.inst.EventLanes = append(s.inst.EventLanes, lane)
		}
	default:
		lane = strings.ReplaceAll(s.inst.InstanceName+"OutputLane"+uuid.NewString(), "-", "_")
		s.inst.OutputLanes = append(s.inst.OutputLanes, lane)
	}

	for _, t := range targets {
		t.inst.InputLanes = append(t.inst.InputLanes, lane)
	}
	return lane, nil
}

// AddOutput connects a new output lane to targets and returns s. It panics
// when a fragment boundary stage runs out of pre-declared lanes; use Connect
// to get the error instead.
func (s *Stage) AddOutput(targets ...*Stage) *Stage {
	if _, err := s.Connect(false, targets...); err != nil {
		panic(err)
	}
	return s
}

// AddEventOutput connects the event lane to targets and returns s.
func (s *Stage) AddEventOutput(targets ...*Stage) *Stage {
	if _, err := s.Connect(true, targets...); err != nil {
		panic(err)
	}
	return s
}

// ConnectOutputTo wires s to target and returns target, so chains read
// left to right: a.ConnectOutputTo(b).ConnectOutputTo(c).
func (s *Stage) ConnectOutputTo(target *Stage) *Stage {
	s.AddOutput(target)
	return target
}

// ConnectOutputToAll wires one lane of s to every target. Fanning out ends a
// chain, so nothing is returned.
func (s *Stage) ConnectOutputToAll(targets ...*Stage) {
	s.AddOutput(targets...)
}

// ConnectEventTo wires the event lane of s to target and returns target.
func (s *Stage) ConnectEventTo(target *Stage) *Stage {
	s.AddEventOutput(target)
	return target
}

// ConnectEventToAll wires the event lane of s to every target.
func (s *Stage) ConnectEventToAll(targets ...*Stage) {
	s.AddEventOutput(targets...)
}

// AttributeNames returns the attributes exposed by this stage, sorted.
func (s *Stage) AttributeNames() []string {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Attributes(s.inst.StageName).Names()
}

// refs resolves name, following aliases, to its backing refs.
func (s *Stage) refs(name string) (string, []catalog.ConfigRef, error) {
	if s.catalog != nil {
		current := name
		for i := 0; i < maxAliasDepth; i++ {
			if refs, ok := s.catalog.Refs(s.inst.StageName, current); ok {
				return current, refs, nil
			}
			target, ok := s.catalog.Alias(s.inst.StageName, current)
			if !ok {
				break
			}
			current = target
		}
	}
	return "", nil, &pipeerr.NotFoundError{Kind: "attribute", Name: name, Scope: s.inst.InstanceName}
}

// Attribute returns the value of the first backing configuration that exists
// on this instance.
func (s *Stage) Attribute(name string) (any, error) {
	resolved, refs, err := s.refs(name)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if !ref.IsService() {
			if s.inst.Configuration.Contains(ref.Config) {
				return s.inst.Configuration.Get(ref.Config)
			}
			continue
		}
		if cfg, err := s.inst.Service(ref.Service); err == nil {
			v, err := cfg.Get(ref.Config)
			if err != nil {
				return nil, s.malformed(resolved, err.Error())
			}
			return v, nil
		}
	}
	return nil, s.malformed(resolved, "no backing configuration on this instance")
}

// SetAttribute writes value to every backing configuration that exists on
// this instance. It fails when none exists.
func (s *Stage) SetAttribute(name string, value any) error {
	resolved, refs, err := s.refs(name)
	if err != nil {
		return err
	}
	found := false
	for _, ref := range refs {
		if !ref.IsService() {
			if s.inst.Configuration.Contains(ref.Config) {
				found = true
				if err := s.inst.Configuration.Set(ref.Config, value); err != nil {
					return err
				}
			}
			continue
		}
		if cfg, err := s.inst.Service(ref.Service); err == nil {
			found = true
			if err := cfg.Set(ref.Config, value); err != nil {
				return s.malformed(resolved, err.Error())
			}
		}
	}
	if !found {
		return s.malformed(resolved, "no backing configuration on this instance")
	}
	return nil
}

// SetAttributes sets every attribute of values in key order and returns at
// the first failure.
func (s *Stage) SetAttributes(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := s.SetAttribute(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) malformed(attr, reason string) error {
	return &pipeerr.MalformedError{
		Subject: fmt.Sprintf("attribute %q of %s", attr, s.inst.InstanceName),
		Reason:  reason,
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
