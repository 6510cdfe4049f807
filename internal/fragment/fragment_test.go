package fragment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegraph/internal/confmap"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
)

// builtFragment returns a two stage fragment A -> B whose B output is open.
func builtFragment() *pipeline.Document {
	doc := &pipeline.Document{
		SchemaVersion: 6,
		Title:         "Clean Up",
		FragmentID:    "frag-id",
		Configuration: confmap.Map{{Name: pipeline.ConfigConstants, Value: []any{
			map[string]any{"key": "THRESHOLD", "value": 10.0},
		}}},
		Stages: []*pipeline.StageInstance{
			{InstanceName: "A_01", InputLanes: []string{}, OutputLanes: []string{"A_out"}},
			{InstanceName: "B_01", InputLanes: []string{"A_out"}, OutputLanes: []string{"B_out"}},
		},
		UIInfo: pipeline.DocumentUIInfo{
			FragmentStageConfiguration: &pipeline.StageInstance{OutputLanes: []string{"B_out"}},
		},
		Metadata: pipeline.Metadata{Labels: []string{pipeline.LabelProcessors}},
	}
	doc.SetID("CleanUpfrag-id")
	return doc
}

func newParent() *pipeline.Document {
	return &pipeline.Document{
		SchemaVersion: 6,
		Configuration: confmap.Map{{Name: pipeline.ConfigConstants, Value: []any{}}},
		Stages:        []*pipeline.StageInstance{},
	}
}

func groupStage() *pipeline.StageInstance {
	return &pipeline.StageInstance{
		InstanceName: "FragmentProcessor_01",
		InputLanes:   []string{},
		OutputLanes:  []string{},
		UIInfo:       pipeline.UIInfo{Label: "Fragment Processor 1", StageType: pipeline.StageTypeProcessor},
	}
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	c := NewComposer()
	parent := newParent()
	frag := builtFragment()

	g, err := c.Merge(ctx, parent, frag, groupStage(), MergeOptions{CommitID: "c1", Version: "3"})
	require.NoError(t, err)

	assert.Equal(t, "Clean Up_01_FragmentProcessor_01", g.InstanceName)
	assert.Equal(t, []string{"Clean Up_01_B_out"}, g.OutputLanes)
	assert.Equal(t, confmap.Map{
		{Name: ConfigFragmentID, Value: "frag-id"},
		{Name: ConfigFragmentInstanceID, Value: "Clean Up_01"},
	}, g.Configuration)
	assert.True(t, g.UIInfo.FragmentGroupStage)
	assert.Equal(t, "Clean Up", g.UIInfo.Label)
	assert.Equal(t, "v3", g.UIInfo.PipelineCommitLabel)
	assert.Equal(t, "c1", g.UIInfo.PipelineCommitID)
	assert.Equal(t, "CleanUpfrag-id", g.UIInfo.PipelineID)

	require.Len(t, parent.Fragments, 1)
	merged := parent.Fragments[0]
	assert.Equal(t, "Clean Up_01", merged.FragmentInstanceID)
	assert.Equal(t, "Clean Up_01_A_01", merged.Stages[0].InstanceName)
	assert.Equal(t, []string{"Clean Up_01_A_out"}, merged.Stages[1].InputLanes)
	assert.Equal(t, "Clean Up_01", merged.Stages[1].UIInfo.FragmentInstanceID)

	t.Run("source fragment is untouched", func(t *testing.T) {
		assert.Equal(t, "A_01", frag.Stages[0].InstanceName)
		assert.Empty(t, frag.FragmentInstanceID)
	})

	t.Run("parameters are prefixed", func(t *testing.T) {
		params, err := parent.Parameters()
		require.NoError(t, err)
		assert.Equal(t, []pipeline.Parameter{{Key: "Clean_01_THRESHOLD", Value: 10.0}}, params)
	})
}

func TestMerge_TwiceKeepsNamesApart(t *testing.T) {
	ctx := context.Background()
	c := NewComposer()
	parent := newParent()
	frag := builtFragment()

	_, err := c.Merge(ctx, parent, frag, groupStage(), MergeOptions{})
	require.NoError(t, err)
	_, err = c.Merge(ctx, parent, frag, groupStage(), MergeOptions{ParameterPrefix: "second_"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count("Clean Up"))

	names := map[string]bool{}
	lanes := map[string]bool{}
	for _, f := range parent.Fragments {
		for _, s := range f.Stages {
			assert.False(t, names[s.InstanceName], "duplicate instance name %s", s.InstanceName)
			names[s.InstanceName] = true
			for _, l := range s.OutputLanes {
				lanes[l] = true
			}
		}
		// The internal A -> B lane stays wired inside each copy.
		assert.Equal(t, f.Stages[0].OutputLanes, f.Stages[1].InputLanes)
	}
	assert.Len(t, names, 4)
	assert.Len(t, lanes, 4)
	assert.True(t, strings.HasPrefix(parent.Stages[1].InstanceName, "Clean Up_02_"))

	params, err := parent.Parameters()
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "second_THRESHOLD", params[1].Key)
}

func TestMerge_RenamesEventLanes(t *testing.T) {
	ctx := context.Background()
	c := NewComposer()
	parent := newParent()
	frag := builtFragment()
	frag.Stages[0].EventLanes = []string{"A_01_EventLane"}
	frag.Stages[1].InputLanes = append(frag.Stages[1].InputLanes, "A_01_EventLane")

	for i := 0; i < 2; i++ {
		_, err := c.Merge(ctx, parent, frag, groupStage(), MergeOptions{})
		require.NoError(t, err)
	}

	testCases := []struct {
		name   string
		prefix string
	}{
		{name: "first copy", prefix: "Clean Up_01_"},
		{name: "second copy", prefix: "Clean Up_02_"},
	}
	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := parent.Fragments[i].Stages[0], parent.Fragments[i].Stages[1]
			assert.Equal(t, []string{tc.prefix + "A_01_EventLane"}, a.EventLanes)
			assert.Equal(t, []string{tc.prefix + "A_out", tc.prefix + "A_01_EventLane"}, b.InputLanes)
		})
	}
	assert.Equal(t, []string{"A_01_EventLane"}, frag.Stages[0].EventLanes)
}

func TestMerge_Exhausted(t *testing.T) {
	c := NewComposer()
	c.counts["Clean Up"] = MaxInstances

	_, err := c.Merge(context.Background(), newParent(), builtFragment(), groupStage(), MergeOptions{})
	assert.ErrorIs(t, err, pipeerr.ErrExhaustedNamespace)
}

func TestMerge_Unbuilt(t *testing.T) {
	frag := builtFragment()
	frag.UIInfo.FragmentStageConfiguration = nil

	_, err := NewComposer().Merge(context.Background(), newParent(), frag, groupStage(), MergeOptions{})
	assert.ErrorIs(t, err, pipeerr.ErrMalformed)
}

func TestDefaultParameterPrefix(t *testing.T) {
	assert.Equal(t, "Clean_01_", DefaultParameterPrefix("Clean Up", 1))
	assert.Equal(t, "ab_12_", DefaultParameterPrefix("a-b", 12))
	assert.Equal(t, "LongT_03_", DefaultParameterPrefix("LongTitle", 3))
}
