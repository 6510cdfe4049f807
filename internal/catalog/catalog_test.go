package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegraph/internal/definitions"
	"github.com/vk/stagegraph/internal/pipeerr"
)

func TestAttributeName(t *testing.T) {
	testCases := []struct {
		label     string
		fieldName string
		want      string
	}{
		{label: "Batch Wait Time (ms)", want: "batch_wait_time_in_ms"},
		{label: "Rate Limit (records/sec)", want: "rate_limit_in_records_per_sec"},
		{label: "Username & Password", want: "username_and_password"},
		{label: "Max Batch Size - Records", want: "max_batch_size_records"},
		{label: "Data Format", want: "data_format"},
		{fieldName: "maxBatchSize", want: "max_batch_size"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			cd := &definitions.ConfigDefinition{Label: tc.label, FieldName: tc.fieldName}
			assert.Equal(t, tc.want, AttributeName(cd))
		})
	}
}

func TestNew(t *testing.T) {
	defs := &definitions.Definitions{
		Stages: []*definitions.StageDefinition{
			{
				Name: "dev_Source",
				ConfigDefinitions: []*definitions.ConfigDefinition{
					{Name: "conf.dataFormat", Label: "Data Format"},
					{Name: "conf.batch", FieldName: "batchSize"},
				},
				Services: []*definitions.ServiceDependency{{Service: "Parser"}},
			},
			{
				Name: "com_streamsets_pipeline_stage_origin_s3_AmazonS3DSource",
				ConfigDefinitions: []*definitions.ConfigDefinition{
					{Name: "s3ConfigBean.dataFormat", Label: "Data Format"},
					{Name: "s3ConfigBean.bucket", Label: "Bucket"},
				},
			},
		},
		Services: []*definitions.ServiceDefinition{
			{
				Provides: "Parser",
				ConfigDefinitions: []*definitions.ConfigDefinition{
					{Name: "dataFormat", Label: "Data Format"},
				},
			},
		},
	}

	c, err := New(defs)
	require.NoError(t, err)

	t.Run("multi-target attribute keeps stage refs before service refs", func(t *testing.T) {
		refs, ok := c.Refs("dev_Source", "data_format")
		require.True(t, ok)
		assert.Equal(t, []ConfigRef{StageConfig("conf.dataFormat"), ServiceConfig("Parser", "dataFormat")}, refs)
	})

	t.Run("field name fallback", func(t *testing.T) {
		refs, ok := c.Refs("dev_Source", "batch_size")
		require.True(t, ok)
		assert.Equal(t, []ConfigRef{StageConfig("conf.batch")}, refs)
	})

	t.Run("override replaces derived refs", func(t *testing.T) {
		refs, ok := c.Refs("com_streamsets_pipeline_stage_origin_s3_AmazonS3DSource", "data_format")
		require.True(t, ok)
		require.Len(t, refs, 2)
		assert.True(t, refs[1].IsService())
		assert.Equal(t, []string{"bucket", "data_format"},
			c.Attributes("com_streamsets_pipeline_stage_origin_s3_AmazonS3DSource").Names())
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, ok := c.Refs("dev_Source", "nope")
		assert.False(t, ok)
	})
}

func TestNew_MissingService(t *testing.T) {
	defs := &definitions.Definitions{
		Stages: []*definitions.StageDefinition{
			{Name: "dev_Source", Services: []*definitions.ServiceDependency{{Service: "Missing"}}},
		},
	}
	_, err := New(defs)
	assert.ErrorIs(t, err, pipeerr.ErrNotFound)
	assert.ErrorContains(t, err, "dev_Source")
}

func TestAlias(t *testing.T) {
	c, err := New(&definitions.Definitions{})
	require.NoError(t, err)

	target, ok := c.Alias("com_streamsets_pipeline_stage_origin_spooldir_SpoolDirDSource", "max_files_in_directory")
	assert.True(t, ok)
	assert.Equal(t, "max_files_soft_limit", target)

	_, ok = c.Alias("dev_Source", "max_files_in_directory")
	assert.False(t, ok)
}
