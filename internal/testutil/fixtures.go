package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/stagegraph/internal/definitions"
)

// Stage and service names used by DefinitionsJSON.
const (
	DevRawDataSource  = "com_streamsets_pipeline_stage_devtest_rawdata_RawDataDSource"
	ExpressionEval    = "com_streamsets_pipeline_stage_processor_expression_ExpressionDProcessor"
	Trash             = "com_streamsets_pipeline_stage_destination_devnull_NullDTarget"
	DiscardErrors     = "com_streamsets_pipeline_stage_destination_devnull_ToErrorNullDTarget"
	StatsDiscard      = "com_streamsets_pipeline_stage_destination_devnull_StatsNullDTarget"
	Shell             = "com_streamsets_pipeline_stage_executor_shell_ShellDExecutor"
	FragmentSource    = "com_streamsets_pipeline_stage_origin_fragment_FragmentSource"
	FragmentProcessor = "com_streamsets_pipeline_stage_processor_fragment_FragmentProcessor"
	FragmentTarget    = "com_streamsets_pipeline_stage_destination_fragment_FragmentTarget"
	DataParserService = "com.streamsets.pipeline.api.service.dataformats.DataFormatParserService"
	BasicLibrary      = "streamsets-datacollector-basic-lib"
	DevLibrary        = "streamsets-datacollector-dev-lib"
)

// DefinitionsJSON is a small definitions export covering every kind of stage
// the builder treats specially.
const DefinitionsJSON = `{
  "stages": [
    {
      "name": "com_streamsets_pipeline_stage_devtest_rawdata_RawDataDSource",
      "label": "Dev Raw Data Source",
      "type": "SOURCE",
      "library": "streamsets-datacollector-dev-lib",
      "version": "3",
      "configDefinitions": [
        {"name": "dataFormat", "label": "Data Format", "type": "MODEL", "defaultValue": "JSON", "model": {"modelType": "VALUE_CHOOSER"}},
        {"name": "rawData", "label": "Raw Data", "type": "TEXT", "defaultValue": ""},
        {"name": "stopAfterFirstBatch", "label": "Stop After First Batch", "type": "BOOLEAN", "defaultValue": null},
        {"name": "stageOnRecordError", "label": "On Record Error", "type": "MODEL", "defaultValue": "TO_ERROR", "model": {"modelType": "VALUE_CHOOSER"}}
      ],
      "services": [
        {"service": "com.streamsets.pipeline.api.service.dataformats.DataFormatParserService", "configuration": [{"name": "displayFormats", "value": "JSON"}]}
      ]
    },
    {
      "name": "com_streamsets_pipeline_stage_processor_expression_ExpressionDProcessor",
      "label": "Expression Evaluator",
      "type": "PROCESSOR",
      "library": "streamsets-datacollector-basic-lib",
      "version": "2",
      "configDefinitions": [
        {"name": "expressionProcessorConfigs", "label": "Field Expressions", "type": "MODEL", "defaultValue": null, "model": {
          "modelType": "LIST_BEAN",
          "configDefinitions": [
            {"name": "fieldToSet", "label": "Output Field", "type": "STRING", "defaultValue": "/"},
            {"name": "expression", "label": "Field Expression", "type": "STRING", "defaultValue": null}
          ]
        }},
        {"name": "headerAttributeConfigs", "label": "Header Attribute Expressions", "type": "MODEL", "defaultValue": null, "model": {"modelType": "FIELD_SELECTOR_MULTI_VALUE"}},
        {"name": "stageRequiredFields", "label": "Required Fields", "type": "LIST", "defaultValue": null}
      ],
      "services": []
    },
    {
      "name": "com_streamsets_pipeline_stage_destination_devnull_NullDTarget",
      "label": "Trash",
      "type": "TARGET",
      "library": "streamsets-datacollector-basic-lib",
      "version": "1",
      "configDefinitions": [],
      "services": []
    },
    {
      "name": "com_streamsets_pipeline_stage_destination_devnull_ToErrorNullDTarget",
      "label": "Discard",
      "type": "TARGET",
      "library": "streamsets-datacollector-basic-lib",
      "version": "1",
      "configDefinitions": [],
      "services": [],
      "errorStage": true
    },
    {
      "name": "com_streamsets_pipeline_stage_destination_devnull_StatsNullDTarget",
      "label": "Discard Statistics",
      "type": "TARGET",
      "library": "streamsets-datacollector-basic-lib",
      "version": "1",
      "configDefinitions": [],
      "services": [],
      "statsAggregatorStage": true
    },
    {
      "name": "com_streamsets_pipeline_stage_executor_shell_ShellDExecutor",
      "label": "Shell",
      "type": "EXECUTOR",
      "library": "streamsets-datacollector-basic-lib",
      "version": "1",
      "configDefinitions": [
        {"name": "config.script", "label": "Script", "type": "TEXT", "defaultValue": ""},
        {"name": "config.environmentVariables", "label": "Environment Variables", "type": "MAP", "defaultValue": null}
      ],
      "services": [],
      "pipelineLifecycleStage": true
    },
    {
      "name": "com_streamsets_pipeline_stage_origin_fragment_FragmentSource",
      "label": "Fragment Origin",
      "type": "SOURCE",
      "library": "streamsets-datacollector-basic-lib",
      "version": "1",
      "configDefinitions": [
        {"name": "conf.fragmentId", "type": "STRING", "defaultValue": null, "fieldName": "fragmentId"},
        {"name": "conf.fragmentInstanceId", "type": "STRING", "defaultValue": null, "fieldName": "fragmentInstanceId"}
      ],
      "services": []
    },
    {
      "name": "com_streamsets_pipeline_stage_processor_fragment_FragmentProcessor",
      "label": "Fragment Processor",
      "type": "PROCESSOR",
      "library": "streamsets-datacollector-basic-lib",
      "version": "1",
      "configDefinitions": [
        {"name": "conf.fragmentId", "type": "STRING", "defaultValue": null, "fieldName": "fragmentId"},
        {"name": "conf.fragmentInstanceId", "type": "STRING", "defaultValue": null, "fieldName": "fragmentInstanceId"}
      ],
      "services": []
    },
    {
      "name": "com_streamsets_pipeline_stage_destination_fragment_FragmentTarget",
      "label": "Fragment Destination",
      "type": "TARGET",
      "library": "streamsets-datacollector-basic-lib",
      "version": "1",
      "configDefinitions": [
        {"name": "conf.fragmentId", "type": "STRING", "defaultValue": null, "fieldName": "fragmentId"},
        {"name": "conf.fragmentInstanceId", "type": "STRING", "defaultValue": null, "fieldName": "fragmentInstanceId"}
      ],
      "services": []
    }
  ],
  "services": [
    {
      "provides": "com.streamsets.pipeline.api.service.dataformats.DataFormatParserService",
      "version": "1",
      "configDefinitions": [
        {"name": "dataFormat", "label": "Data Format", "type": "MODEL", "defaultValue": null, "model": {"modelType": "VALUE_CHOOSER"}},
        {"name": "displayFormats", "label": "Display Formats", "type": "STRING", "defaultValue": "XML"},
        {"name": "dataFormatConfig.charset", "label": "Charset", "type": "STRING", "defaultValue": "UTF-8"}
      ]
    }
  ],
  "pipeline": [
    {
      "configDefinitions": [
        {"name": "executionMode", "label": "Execution Mode", "type": "MODEL", "defaultValue": "STANDALONE", "model": {"modelType": "VALUE_CHOOSER"}},
        {"name": "deliveryGuarantee", "label": "Delivery Guarantee", "type": "MODEL", "defaultValue": "AT_LEAST_ONCE", "model": {"modelType": "VALUE_CHOOSER"}},
        {"name": "shouldRetry", "label": "Retry Pipeline on Error", "type": "BOOLEAN", "defaultValue": null},
        {"name": "constants", "label": "Parameters", "type": "LIST", "defaultValue": []},
        {"name": "badRecordsHandling", "label": "Error Records", "type": "MODEL", "defaultValue": "", "model": {"modelType": "VALUE_CHOOSER"}},
        {"name": "startEventStage", "label": "Start Event", "type": "MODEL", "defaultValue": "", "model": {"modelType": "VALUE_CHOOSER"}},
        {"name": "stopEventStage", "label": "Stop Event", "type": "MODEL", "defaultValue": "", "model": {"modelType": "VALUE_CHOOSER"}},
        {"name": "statsAggregatorStage", "label": "Statistics Aggregator", "type": "MODEL", "defaultValue": "", "model": {"modelType": "VALUE_CHOOSER"}},
        {"name": "testOriginStage", "label": "Test Origin", "type": "MODEL", "defaultValue": "", "model": {"modelType": "VALUE_CHOOSER"}}
      ]
    }
  ],
  "pipelineFragment": [
    {
      "configDefinitions": [
        {"name": "executionMode", "label": "Execution Mode", "type": "MODEL", "defaultValue": "STANDALONE", "model": {"modelType": "VALUE_CHOOSER"}},
        {"name": "constants", "label": "Parameters", "type": "LIST", "defaultValue": []}
      ]
    }
  ]
}`

// Definitions decodes DefinitionsJSON.
func Definitions(t *testing.T) *definitions.Definitions {
	t.Helper()
	defs, err := definitions.Load(context.Background(), strings.NewReader(DefinitionsJSON))
	require.NoError(t, err)
	return defs
}
