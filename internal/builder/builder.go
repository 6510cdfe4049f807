package builder

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/vk/stagegraph/internal/catalog"
	"github.com/vk/stagegraph/internal/definitions"
	"github.com/vk/stagegraph/internal/fragment"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
	"github.com/vk/stagegraph/internal/stage"
)

// minTestOriginVersion is the newest engine release without test origins.
var minTestOriginVersion = semver.MustParse("3.3.0")

var nonAlphanumeric = regexp.MustCompile(`[\W]|_`)

// Builder assembles one pipeline or fragment document.
type Builder struct {
	defs     *definitions.Definitions
	catalog  *catalog.Catalog
	factory  *stage.Factory
	composer *fragment.Composer

	doc      *pipeline.Document
	rules    pipeline.Rules
	fragment bool

	engineVersion     string
	engine            *semver.Version
	schemaVersion     int
	newID             func() string
	fragmentCommitIDs []string
	wrappers          map[*pipeline.StageInstance]*stage.Stage
	warnings          []error
}

// Option configures a Builder.
type Option func(*Builder)

// AsFragment makes the builder produce a pipeline fragment.
func AsFragment() Option {
	return func(b *Builder) { b.fragment = true }
}

// WithEngineVersion declares the engine release the document targets. Some
// stages are refused for old releases.
func WithEngineVersion(version string) Option {
	return func(b *Builder) { b.engineVersion = version }
}

// WithSchemaVersion sets the schema version of generated skeletons.
func WithSchemaVersion(version int) Option {
	return func(b *Builder) { b.schemaVersion = version }
}

// WithIDSource replaces the random suffix of generated document ids.
func WithIDSource(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

// New returns a builder over defs. A nil skeleton starts from an empty
// document generated from the pipeline configuration definitions; a given
// skeleton has its id cleared so every builder produces a new pipeline.
func New(defs *definitions.Definitions, skeleton *pipeline.Document, opts ...Option) (*Builder, error) {
	b := &Builder{
		defs:     defs,
		factory:  stage.NewFactory(defs),
		composer: fragment.NewComposer(),
		rules:    pipeline.NewRules(),
		newID:    uuid.NewString,
		wrappers: make(map[*pipeline.StageInstance]*stage.Stage),
	}
	for _, opt := range opts {
		opt(b)
	}

	cat, err := catalog.New(defs)
	if err != nil {
		return nil, fmt.Errorf("failed to index stage definitions: %w", err)
	}
	b.catalog = cat

	if b.engineVersion != "" {
		v, err := semver.NewVersion(b.engineVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid engine version %q: %w", b.engineVersion, err)
		}
		b.engine = v
	}

	if skeleton == nil {
		skeleton = pipeline.NewSkeleton(defs, b.fragment, b.schemaVersion)
	}
	skeleton.SetID("")
	b.doc = skeleton
	return b, nil
}

// IsFragment reports whether the builder produces a fragment.
func (b *Builder) IsFragment() bool { return b.fragment }

// Document returns the document under construction.
func (b *Builder) Document() *pipeline.Document { return b.doc }

// Catalog returns the attribute index the builder's stages use.
func (b *Builder) Catalog() *catalog.Catalog { return b.catalog }

// Warnings returns the findings of the last Build.
func (b *Builder) Warnings() []error { return b.warnings }

// wrap returns the one façade of inst, so per-stage lane bookkeeping is
// shared by every caller.
func (b *Builder) wrap(inst *pipeline.StageInstance) *stage.Stage {
	if s, ok := b.wrappers[inst]; ok {
		return s
	}
	s := stage.New(inst, b.catalog)
	if len(inst.OutputLanes) > 0 {
		s.SkipLanes(b.consumedLanes())
	}
	b.wrappers[inst] = s
	return s
}

// consumedLanes returns every lane some stage of the document reads from.
func (b *Builder) consumedLanes() map[string]bool {
	consumed := make(map[string]bool)
	for _, s := range b.doc.AllStages() {
		for _, l := range s.InputLanes {
			consumed[l] = true
		}
	}
	return consumed
}

// Stages returns the graph stages in the order they were added.
func (b *Builder) Stages() []*stage.Stage {
	out := make([]*stage.Stage, len(b.doc.Stages))
	for i, inst := range b.doc.Stages {
		out[i] = b.wrap(inst)
	}
	return out
}

// Stage returns the graph stage with the given instance name.
func (b *Builder) Stage(instanceName string) (*stage.Stage, error) {
	inst, err := b.doc.Stage(instanceName)
	if err != nil {
		return nil, err
	}
	return b.wrap(inst), nil
}

// ImportPipeline replaces the document with an exported one. Unless
// regenerateID is false the imported id is cleared so Build assigns a new one.
func (b *Builder) ImportPipeline(exp *pipeline.Export, regenerateID bool) error {
	doc, isFragment, err := exp.Document()
	if err != nil {
		return err
	}
	if isFragment != b.fragment {
		return &pipeerr.StructuralError{Reason: fmt.Sprintf("cannot import (fragment=%t) into a builder with fragment=%t", isFragment, b.fragment)}
	}
	if regenerateID {
		doc.SetID("")
	}

	b.doc = doc
	b.rules = exp.PipelineRules
	b.fragmentCommitIDs = append([]string(nil), exp.FragmentCommitIDs...)
	b.wrappers = make(map[*pipeline.StageInstance]*stage.Stage)
	b.composer.Reset()
	for _, f := range doc.Fragments {
		b.composer.Seen(f.Title)
	}
	return nil
}

// AddParameters appends pipeline parameters, sorted by key.
func (b *Builder) AddParameters(values map[string]any) error {
	return b.doc.AddParameters(values)
}

// Export wraps the document and its rules in the envelope the engine imports.
func (b *Builder) Export() *pipeline.Export {
	exp := pipeline.NewExport(b.doc, b.fragment)
	exp.PipelineRules = b.rules
	if len(b.doc.Fragments) > 0 {
		exp.FragmentCommitIDs = b.fragmentCommitIDs
	}
	return exp
}

// documentID derives a new document id from the title, keeping only ASCII
// letters and digits.
func (b *Builder) documentID(title string) string {
	return nonAlphanumeric.ReplaceAllString(title, "") + b.newID()
}
