// Package fragment splices built pipeline fragments into a parent pipeline.
// Every identifier inside a merged fragment is namespaced with its fragment
// instance id so one fragment can be merged any number of times.
package fragment

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/vk/stagegraph/internal/confmap"
	"github.com/vk/stagegraph/internal/ctxlog"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
)

// MaxInstances is the number of merges of one fragment title a parent
// accepts. Instance counts are rendered with two digits.
const MaxInstances = 99

// Configuration keys of a fragment group stage.
const (
	ConfigFragmentID         = "conf.fragmentId"
	ConfigFragmentInstanceID = "conf.fragmentInstanceId"
)

var nonWord = regexp.MustCompile(`\W`)

// MergeOptions describe one merge.
type MergeOptions struct {
	// ParameterPrefix replaces the default "<title[:5]>_<nn>_" prefix of the
	// fragment parameters copied into the parent.
	ParameterPrefix string
	// CommitID and Version identify the fragment revision being merged.
	CommitID string
	Version  string
}

// Composer merges fragments into one parent and counts merges per title.
// A Composer must not be shared between parents.
type Composer struct {
	counts map[string]int
}

// NewComposer returns a composer with no merges recorded.
func NewComposer() *Composer {
	return &Composer{counts: make(map[string]int)}
}

// Count returns how many times a fragment title was merged.
func (c *Composer) Count(title string) int {
	return c.counts[title]
}

// Seen records a merge done elsewhere, e.g. in an imported document.
func (c *Composer) Seen(title string) {
	c.counts[title]++
}

// Reset forgets every recorded merge.
func (c *Composer) Reset() {
	c.counts = make(map[string]int)
}

// Merge namespaces a copy of frag and splices it into parent. group is the
// freshly created boundary stage instance that represents the fragment in the
// parent graph; Merge renames and configures it, appends it to the parent
// stages and returns it. frag itself is not modified.
func (c *Composer) Merge(ctx context.Context, parent, frag *pipeline.Document, group *pipeline.StageInstance, opts MergeOptions) (*pipeline.StageInstance, error) {
	logger := ctxlog.FromContext(ctx)

	boundary := frag.UIInfo.FragmentStageConfiguration
	if boundary == nil {
		return nil, &pipeerr.MalformedError{Subject: fmt.Sprintf("fragment %q", frag.Title), Reason: "has no fragment stage configuration, build it first"}
	}

	title := frag.Title
	count := c.counts[title] + 1
	if count > MaxInstances {
		return nil, &pipeerr.ExhaustedNamespaceError{Prefix: title, Limit: MaxInstances}
	}

	merged, err := frag.Clone()
	if err != nil {
		return nil, err
	}

	suffix := fmt.Sprintf("%02d", count)
	instanceID := title + "_" + suffix
	rename := func(id string) string { return instanceID + "_" + id }

	merged.FragmentInstanceID = instanceID
	for _, s := range merged.Stages {
		s.InstanceName = rename(s.InstanceName)
		s.InputLanes = renameAll(s.InputLanes, rename)
		s.OutputLanes = renameAll(s.OutputLanes, rename)
		s.EventLanes = renameAll(s.EventLanes, rename)
		s.UIInfo.FragmentID = merged.FragmentID
		s.UIInfo.FragmentInstanceID = instanceID
	}

	group.InstanceName = rename(group.InstanceName)
	group.Configuration = confmap.Map{
		{Name: ConfigFragmentID, Value: merged.FragmentID},
		{Name: ConfigFragmentInstanceID, Value: instanceID},
	}
	group.OutputLanes = renameAll(boundary.OutputLanes, rename)
	group.UIInfo.FragmentID = merged.FragmentID
	group.UIInfo.FragmentGroupStage = true
	group.UIInfo.FragmentInstanceID = instanceID
	group.UIInfo.FragmentName = title
	group.UIInfo.Label = title
	group.UIInfo.PipelineCommitID = opts.CommitID
	if opts.Version != "" {
		group.UIInfo.PipelineCommitLabel = "v" + opts.Version
	}
	group.UIInfo.PipelineID = merged.ID()

	prefix := opts.ParameterPrefix
	if prefix == "" {
		prefix = DefaultParameterPrefix(title, count)
	}
	params, err := merged.Parameters()
	if err != nil && !errors.Is(err, pipeerr.ErrNotFound) {
		return nil, fmt.Errorf("fragment %q: %w", title, err)
	}
	if len(params) > 0 {
		prefixed := make([]pipeline.Parameter, len(params))
		for i, p := range params {
			prefixed[i] = pipeline.Parameter{Key: prefix + p.Key, Value: p.Value}
		}
		if err := parent.AppendParameters(prefixed...); err != nil {
			return nil, fmt.Errorf("failed to copy parameters of fragment %q: %w", title, err)
		}
	}

	c.counts[title] = count
	parent.Stages = append(parent.Stages, group)
	parent.Fragments = append(parent.Fragments, merged)

	logger.Debug("Fragment merged.",
		"fragment", title,
		"fragment_instance_id", instanceID,
		"stages", len(merged.Stages),
		"open_lanes", len(group.OutputLanes),
		"parameters", len(params),
	)
	return group, nil
}

// DefaultParameterPrefix returns the parameter prefix of the count-th merge of
// a fragment: its first five word characters, the two-digit count and an
// underscore.
func DefaultParameterPrefix(title string, count int) string {
	clean := []rune(nonWord.ReplaceAllString(title, ""))
	if len(clean) > 5 {
		clean = clean[:5]
	}
	return fmt.Sprintf("%s_%02d_", string(clean), count)
}

func renameAll(lanes []string, rename func(string) string) []string {
	out := make([]string, len(lanes))
	for i, l := range lanes {
		out[i] = rename(l)
	}
	return out
}
