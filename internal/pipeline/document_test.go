package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegraph/internal/confmap"
	"github.com/vk/stagegraph/internal/pipeerr"
)

func TestDocumentID(t *testing.T) {
	testCases := []struct {
		name           string
		schemaVersion  int
		wantInfoID     string
		wantTopLevelID string
	}{
		{name: "schema 2 keeps id in info.name only", schemaVersion: 2},
		{name: "schema 3 mirrors id", schemaVersion: 3, wantInfoID: "p1", wantTopLevelID: "p1"},
		{name: "schema 6 mirrors id", schemaVersion: 6, wantInfoID: "p1", wantTopLevelID: "p1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &Document{SchemaVersion: tc.schemaVersion}
			d.SetID("p1")

			assert.Equal(t, "p1", d.ID())
			assert.Equal(t, "p1", d.Info.Name)
			assert.Equal(t, tc.wantInfoID, d.Info.PipelineID)
			assert.Equal(t, tc.wantTopLevelID, d.PipelineID)

			raw, err := json.Marshal(d)
			require.NoError(t, err)
			assert.Equal(t, tc.wantTopLevelID != "", strings.Contains(string(raw), `"pipelineId":"p1"`))
		})
	}
}

func TestParameters(t *testing.T) {
	d := &Document{Configuration: confmap.Map{{Name: ConfigConstants, Value: []any{}}}}

	require.NoError(t, d.AddParameters(map[string]any{"b": 2, "a": "x"}))
	require.NoError(t, d.AppendParameters(Parameter{Key: "c", Value: true}))

	got, err := d.Parameters()
	require.NoError(t, err)
	assert.Equal(t, []Parameter{{Key: "a", Value: "x"}, {Key: "b", Value: 2}, {Key: "c", Value: true}}, got)

	t.Run("missing constants", func(t *testing.T) {
		_, err := (&Document{}).Parameters()
		assert.ErrorIs(t, err, pipeerr.ErrNotFound)
	})

	t.Run("malformed constants", func(t *testing.T) {
		bad := &Document{Configuration: confmap.Map{{Name: ConfigConstants, Value: "nope"}}}
		_, err := bad.Parameters()
		assert.ErrorIs(t, err, pipeerr.ErrMalformed)
	})
}

func TestOpenOutputLanes(t *testing.T) {
	stages := []*StageInstance{
		{InstanceName: "a", OutputLanes: []string{"l1", "l2"}},
		{InstanceName: "b", InputLanes: []string{"l1"}, OutputLanes: []string{"l3"}},
		{InstanceName: "c", InputLanes: []string{"l2"}},
	}
	assert.Equal(t, []string{"l3"}, OpenOutputLanes(stages))
	assert.Empty(t, OpenOutputLanes(nil))
}

func TestFragmentLabel(t *testing.T) {
	source := &StageInstance{UIInfo: UIInfo{StageType: StageTypeSource}}
	processor := &StageInstance{UIInfo: UIInfo{StageType: StageTypeProcessor}}

	assert.Equal(t, LabelOrigins, FragmentLabel([]*StageInstance{source, processor}, 1))
	assert.Equal(t, LabelProcessors, FragmentLabel([]*StageInstance{processor}, 1))
	assert.Equal(t, LabelDestinations, FragmentLabel([]*StageInstance{source}, 0))
	assert.Equal(t, "Fragment Origin", FragmentStageLabel(LabelOrigins))
	assert.Equal(t, "Fragment Destination", FragmentStageLabel(LabelDestinations))
}

func TestClone_IsDeep(t *testing.T) {
	d := &Document{
		Title:  "t",
		Stages: []*StageInstance{{InstanceName: "a", InputLanes: []string{}, OutputLanes: []string{"x"}}},
	}
	c, err := d.Clone()
	require.NoError(t, err)

	c.Stages[0].OutputLanes[0] = "y"
	assert.Equal(t, "x", d.Stages[0].OutputLanes[0])
}

func TestExport(t *testing.T) {
	doc := &Document{SchemaVersion: 6, Title: "frag", Stages: []*StageInstance{}}
	var buf bytes.Buffer
	require.NoError(t, NewExport(doc, true).Encode(&buf))

	got, err := ReadFragment(&buf)
	require.NoError(t, err)
	assert.Equal(t, "frag", got.Title)

	t.Run("pipeline is not a fragment", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewExport(doc, false).Encode(&buf))
		_, err := ReadFragment(&buf)
		assert.ErrorIs(t, err, pipeerr.ErrMalformed)
	})

	t.Run("empty envelope", func(t *testing.T) {
		_, err := ReadExport(strings.NewReader(`{"pipelineRules": {}}`))
		assert.ErrorIs(t, err, pipeerr.ErrMalformed)
	})
}

func TestRuleDefaults(t *testing.T) {
	dr := NewDataRule("lane", "label", "${record:value('/a') > 1}")
	dr.ThresholdType = "percentage"
	dr.Normalize()
	assert.Equal(t, "PERCENTAGE", dr.ThresholdType)
	assert.Equal(t, 5, dr.SamplingPercentage)
	assert.False(t, dr.Enabled)
	assert.NotEmpty(t, dr.ID)

	drift := NewDataDriftRule("lane", "drift", "")
	assert.Equal(t, "${alert:info()}", drift.AlertText)

	mr := NewMetricRule("too many", "stage.Trash_01.inputRecords.counter", "COUNTER_COUNT")
	assert.Equal(t, "COUNTER", mr.MetricType)
	assert.Equal(t, "${value() > 1000}", mr.Condition)
	assert.NotEqual(t, dr.ID, mr.ID)
}
