package pipeline

import (
	"github.com/vk/stagegraph/internal/definitions"
)

// DefaultSchemaVersion is the document schema version of new skeletons.
const DefaultSchemaVersion = 6

// NewSkeleton returns an empty pipeline, or fragment, whose configuration is
// populated from the engine's pipeline configuration definitions.
func NewSkeleton(defs *definitions.Definitions, fragment bool, schemaVersion int) *Document {
	if schemaVersion == 0 {
		schemaVersion = DefaultSchemaVersion
	}
	return &Document{
		SchemaVersion:    schemaVersion,
		Configuration:    definitions.Defaults(defs.PipelineConfigDefinitions(fragment)),
		Stages:           []*StageInstance{},
		StartEventStages: []*StageInstance{},
		StopEventStages:  []*StageInstance{},
		Metadata:         Metadata{Labels: []string{}},
		Fragments:        []*Document{},
	}
}

// NewExport wraps doc in an export envelope.
func NewExport(doc *Document, fragment bool) *Export {
	e := &Export{PipelineRules: NewRules()}
	if fragment {
		e.PipelineFragmentConfig = doc
	} else {
		e.PipelineConfig = doc
	}
	return e
}
