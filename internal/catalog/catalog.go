// Package catalog derives, once per definitions set, the mapping from public
// attribute names to the configuration keys that back them.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/vk/stagegraph/internal/definitions"
)

// ConfigRef points at one configuration key. A ref with an empty Service
// addresses the stage's own configuration; otherwise it addresses the
// configuration of the named service attached to the stage.
type ConfigRef struct {
	Service string
	Config  string
}

// StageConfig returns a ref to a stage-level configuration key.
func StageConfig(config string) ConfigRef {
	return ConfigRef{Config: config}
}

// ServiceConfig returns a ref to a configuration key of an attached service.
func ServiceConfig(service, config string) ConfigRef {
	return ConfigRef{Service: service, Config: config}
}

// IsService reports whether the ref addresses service configuration.
func (r ConfigRef) IsService() bool { return r.Service != "" }

func (r ConfigRef) String() string {
	if r.IsService() {
		return r.Service + "/" + r.Config
	}
	return r.Config
}

// Attributes maps attribute names to the refs they write through to.
type Attributes map[string][]ConfigRef

// Names returns the attribute names in sorted order.
func (a Attributes) Names() []string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Catalog is the per-session attribute index keyed by stage definition name.
type Catalog struct {
	stages  map[string]Attributes
	aliases map[string]map[string]string
}

// New builds the attribute index for every stage in defs. A stage that
// declares a service missing from defs is an error.
func New(defs *definitions.Definitions) (*Catalog, error) {
	c := &Catalog{
		stages:  make(map[string]Attributes, len(defs.Stages)),
		aliases: attributeAliases,
	}

	for _, sd := range defs.Stages {
		attrs := make(Attributes)
		for _, cd := range sd.ConfigDefinitions {
			name := AttributeName(cd)
			attrs[name] = append(attrs[name], StageConfig(cd.Name))
		}
		for _, dep := range sd.Services {
			svc, err := defs.Service(dep.Service)
			if err != nil {
				return nil, fmt.Errorf("stage %s: %w", sd.Name, err)
			}
			for _, cd := range svc.ConfigDefinitions {
				name := AttributeName(cd)
				attrs[name] = append(attrs[name], ServiceConfig(dep.Service, cd.Name))
			}
		}
		for name, refs := range configOverrides[sd.Name] {
			attrs[name] = refs
		}
		c.stages[sd.Name] = attrs
	}
	return c, nil
}

// Attributes returns the attribute index of a stage definition, or nil for
// unknown stages.
func (c *Catalog) Attributes(stageName string) Attributes {
	return c.stages[stageName]
}

// Refs returns the refs behind attr on stageName.
func (c *Catalog) Refs(stageName, attr string) ([]ConfigRef, bool) {
	refs, ok := c.stages[stageName][attr]
	return refs, ok
}

// Alias returns the current attribute name for a renamed attribute.
func (c *Catalog) Alias(stageName, attr string) (string, bool) {
	target, ok := c.aliases[stageName][attr]
	return target, ok
}

var (
	badChars    = regexp.MustCompile(`[\s-]+`)
	perSec      = regexp.MustCompile(`/sec`)
	parenthesis = regexp.MustCompile(`_\((.+)\)`)
)

// AttributeName derives the public attribute name of a configuration
// definition from its label, e.g. "Batch Wait Time (ms)" becomes
// "batch_wait_time_in_ms". Definitions without a label fall back to their
// snake-cased field name.
func AttributeName(cd *definitions.ConfigDefinition) string {
	if cd.Label == "" {
		return strcase.ToSnake(cd.FieldName)
	}
	name := badChars.ReplaceAllString(strings.ToLower(cd.Label), "_")
	name = strings.ReplaceAll(name, "&", "and")
	name = perSec.ReplaceAllString(name, "_per_sec")
	return parenthesis.ReplaceAllString(name, "_in_$1")
}
