package integration_tests

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegraph/internal/app"
	"github.com/vk/stagegraph/internal/pipeline"
	"github.com/vk/stagegraph/internal/testutil/apptest"
)

const fragmentBlueprint = `
pipeline "Clean Up" {
  as_fragment = true
  parameters  = { FIELD = "/a" }

  stage "eval" {
    label      = "Expression Evaluator"
    attributes = {
      field_expressions = [{ fieldToSet = param.FIELD, expression = "$${record:value('/b')}" }]
    }
  }
}
`

const pipelineBlueprint = `
pipeline "Dev With Fragment" {
  stage "source" {
    label      = "Dev Raw Data Source"
    attributes = { raw_data = jsonencode({ a = 1 }) }
    output { to = ["clean"] }
  }

  fragment "clean" {
    path      = "fragments/clean.json"
    commit_id = "c-1"
    version   = "2"
    output { to = ["trash"] }
  }

  stage "trash" {
    label = "Trash"
  }

  error_stage {
    label = "Discard"
  }

  data_rule "volume" {
    from      = "source"
    condition = "$${true}"
  }
}
`

// buildFragment runs the app on the fragment blueprint and returns its export.
func buildFragment(t *testing.T) string {
	t.Helper()
	res := apptest.Run(t, map[string]string{"pipeline/main.hcl": fragmentBlueprint}, nil)
	require.NoError(t, res.Err, res.LogOutput)
	return res.Output
}

func TestFragmentExport(t *testing.T) {
	res := apptest.Run(t, map[string]string{"pipeline/main.hcl": fragmentBlueprint}, nil)
	exp := res.Export(t)

	doc, isFragment, err := exp.Document()
	require.NoError(t, err)
	require.True(t, isFragment)
	assert.Equal(t, []string{pipeline.LabelProcessors}, doc.Metadata.Labels)
	assert.Equal(t, doc.ID(), doc.FragmentID)
	require.NotNil(t, doc.UIInfo.FragmentStageConfiguration)
	assert.Equal(t, doc.Stages[0].OutputLanes, doc.UIInfo.FragmentStageConfiguration.OutputLanes)

	exprs, err := doc.Stages[0].Configuration.Get("expressionProcessorConfigs")
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"fieldToSet": "/a", "expression": "${record:value('/b')}"}}, exprs)
}

func TestPipelineWithFragment(t *testing.T) {
	frag := buildFragment(t)
	res := apptest.Run(t, map[string]string{
		"pipeline/main.hcl":             pipelineBlueprint,
		"pipeline/fragments/clean.json": frag,
	}, nil)
	exp := res.Export(t)

	doc, isFragment, err := exp.Document()
	require.NoError(t, err)
	require.False(t, isFragment)
	assert.Contains(t, res.LogOutput, "Export written.")
	assert.NotContains(t, res.LogOutput, "level=WARN")

	require.Len(t, doc.Stages, 3)
	source, group, trash := doc.Stages[0], doc.Stages[1], doc.Stages[2]
	assert.Equal(t, "Clean Up_01_FragmentProcessor_01", group.InstanceName)
	assert.Equal(t, source.OutputLanes, group.InputLanes)
	assert.Equal(t, group.OutputLanes, trash.InputLanes)

	require.Len(t, doc.Fragments, 1)
	merged := doc.Fragments[0]
	assert.Equal(t, "Clean Up_01", merged.FragmentInstanceID)
	assert.Equal(t, source.OutputLanes, merged.Stages[0].InputLanes)
	assert.Equal(t, "Clean Up_01_ExpressionEvaluator_01", merged.Stages[0].InstanceName)

	x := func(s *pipeline.StageInstance) int { return *s.UIInfo.XPos }
	assert.Equal(t, []int{60, 280, 500}, []int{x(source), x(group), x(trash)})

	params, err := doc.Parameters()
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Parameter{{Key: "Clean_01_FIELD", Value: "/a"}}, params)

	assert.Equal(t, []string{"c-1"}, exp.FragmentCommitIDs)
	require.Len(t, exp.PipelineRules.DataRuleDefinitions, 1)
	assert.Equal(t, source.OutputLanes[0], exp.PipelineRules.DataRuleDefinitions[0].Lane)

	raw, err := source.Configuration.Get("rawData")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, raw)
}

func TestFragmentsDirSetting(t *testing.T) {
	frag := buildFragment(t)
	res := apptest.Run(t, map[string]string{
		"pipeline/main.hcl":           pipelineBlueprint,
		"shared/fragments/clean.json": frag,
	}, func(dir string, s *app.Settings) {
		s.FragmentsDir = filepath.Join(dir, "shared")
	})
	require.NoError(t, res.Err, res.LogOutput)

	t.Run("missing fragment", func(t *testing.T) {
		res := apptest.Run(t, map[string]string{"pipeline/main.hcl": pipelineBlueprint}, nil)
		require.Error(t, res.Err)
		assert.ErrorContains(t, res.Err, "clean.json")
	})
}

func TestValidateMode(t *testing.T) {
	blueprint := `
pipeline "Loose Ends" {
  stage "source" {
    label = "Dev Raw Data Source"
    output { to = [] }
  }
}
`
	res := apptest.Run(t, map[string]string{"pipeline/main.hcl": blueprint}, func(_ string, s *app.Settings) {
		s.ValidateOnly = true
	})

	var verr *app.ValidationError
	require.ErrorAs(t, res.Err, &verr)
	assert.Len(t, verr.Warnings, 2)
	assert.Contains(t, res.Output, "warning: pipeline has no error stage")
	assert.Contains(t, res.Output, "is produced but never consumed")
	assert.NotContains(t, res.Output, "pipelineConfig")

	t.Run("clean pipeline", func(t *testing.T) {
		res := apptest.Run(t, map[string]string{"pipeline/main.hcl": `
pipeline "Tidy" {
  error_stage { label = "Discard" }
}
`}, func(_ string, s *app.Settings) {
			s.ValidateOnly = true
		})
		require.NoError(t, res.Err)
		assert.Equal(t, "Tidy: 0 stage(s), no warnings\n", res.Output)
	})
}

func TestBaseExport(t *testing.T) {
	first := apptest.Run(t, map[string]string{"pipeline/main.hcl": `
pipeline "Base" {
  stage "trash" { label = "Trash" }
  error_stage { label = "Discard" }
}
`}, nil)
	base := first.Export(t)

	extend := `
pipeline "Extended" {
  stage "trash" { label = "Trash" }
}
`
	for _, keep := range []bool{true, false} {
		res := apptest.Run(t, map[string]string{
			"pipeline/main.hcl": extend,
			"base.json":         first.Output,
		}, func(dir string, s *app.Settings) {
			s.Base = filepath.Join(dir, "base.json")
			s.KeepID = keep
		})
		doc, _, err := res.Export(t).Document()
		require.NoError(t, err)

		var names []string
		for _, s := range doc.Stages {
			names = append(names, s.InstanceName)
		}
		if diff := cmp.Diff([]string{"Trash_01", "Trash_02"}, names); diff != "" {
			t.Errorf("stages mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, "Extended", doc.Title)
		if keep {
			assert.Equal(t, base.PipelineConfig.ID(), doc.ID())
		} else {
			assert.NotEqual(t, base.PipelineConfig.ID(), doc.ID())
			assert.Regexp(t, `^Extended`, doc.ID())
		}
	}
}

func TestEngineVersionGate(t *testing.T) {
	blueprint := `
pipeline "Preview" {
  test_origin_stage { label = "Dev Raw Data Source" }
  error_stage { label = "Discard" }
}
`
	testCases := []struct {
		version string
		wantErr bool
	}{
		{version: "3.3.0", wantErr: true},
		{version: "3.4.0"},
	}
	for _, tc := range testCases {
		t.Run(tc.version, func(t *testing.T) {
			res := apptest.Run(t, map[string]string{"pipeline/main.hcl": blueprint}, func(_ string, s *app.Settings) {
				s.Engine.Version = tc.version
			})
			if tc.wantErr {
				assert.ErrorContains(t, res.Err, "test origin stage is not supported for engine version 3.3.0")
				return
			}
			doc, _, err := res.Export(t).Document()
			require.NoError(t, err)
			require.NotNil(t, doc.TestOriginStage)
			v, err := doc.Configuration.Get(pipeline.ConfigTestOriginStage)
			require.NoError(t, err)
			assert.Equal(t, "streamsets-datacollector-dev-lib::com_streamsets_pipeline_stage_devtest_rawdata_RawDataDSource::3", v)
		})
	}
}
