package catalog

const dataFormatParserService = "com.streamsets.pipeline.api.service.dataformats.DataFormatParserService"

// configOverrides replaces derived attributes whose labels convert poorly.
var configOverrides = map[string]Attributes{
	"com_streamsets_datacollector_pipeline_executor_spark_SparkDExecutor": {
		"maximum_time_to_wait_in_ms": {StageConfig("conf.yarnConfigBean.waitTimeout")},
	},
	"com_streamsets_pipeline_stage_bigquery_origin_BigQueryDSource": {
		"use_cached_query_results": {StageConfig("conf.useQueryCache")},
	},
	"com_streamsets_pipeline_stage_destination_elasticsearch_ElasticSearchDTarget": {
		"security_username_and_password": {StageConfig("elasticSearchConfig.securityConfig.securityUser")},
	},
	"com_streamsets_pipeline_stage_destination_elasticsearch_ToErrorElasticSearchDTarget": {
		"security_username_and_password": {StageConfig("elasticSearchConfig.securityConfig.securityUser")},
	},
	"com_streamsets_pipeline_stage_destination_snowflake_SnowflakeDTarget": {
		"processing_cdc_data": {StageConfig("config.data.cdcData")},
	},
	"com_streamsets_pipeline_stage_devtest_rawdata_RawDataDSource": {
		"data_format": {
			StageConfig("dataFormat"),
			ServiceConfig(dataFormatParserService, "dataFormat"),
		},
		"datagram_data_format": {
			StageConfig("dataFormatConfig.datagramMode"),
			ServiceConfig(dataFormatParserService, "dataFormatConfig.datagramMode"),
		},
	},
	"com_streamsets_pipeline_stage_origin_coapserver_CoapServerDPushSource": dataFormatAt(""),
	"com_streamsets_pipeline_stage_origin_elasticsearch_ElasticsearchDSource": {
		"security_username_and_password": {StageConfig("elasticSearchConfig.securityConfig.securityUser")},
	},
	"com_streamsets_pipeline_stage_origin_hdfs_cluster_ClusterHdfsDSource": dataFormatAt("clusterHDFSConfigBean."),
	"com_streamsets_pipeline_stage_origin_http_HttpClientDSource": {
		"data_format":            {StageConfig("conf.dataFormat")},
		"datagram_data_format":   {StageConfig("conf.dataFormatConfig.datagramMode")},
		"initial_page_or_offset": {StageConfig("conf.pagination.startAt")},
	},
	"com_streamsets_pipeline_stage_origin_httpserver_HttpServerDPushSource": dataFormatAt(""),
	"com_streamsets_pipeline_stage_origin_jms_JmsDSource": {
		"data_format": {
			StageConfig("dataFormat"),
			ServiceConfig(dataFormatParserService, "dataFormat"),
		},
		"datagram_data_format": {
			StageConfig("dataFormatConfig.datagramMode"),
			ServiceConfig(dataFormatParserService, "dataFormatConfig.datagramMode"),
		},
	},
	"com_streamsets_pipeline_stage_origin_kafka_KafkaDSource":                         dataFormatAt("kafkaConfigBean."),
	"com_streamsets_pipeline_stage_origin_kinesis_KinesisDSource":                     dataFormatAt("kinesisConfig."),
	"com_streamsets_pipeline_stage_origin_logtail_FileTailDSource":                    dataFormatAt("conf."),
	"com_streamsets_pipeline_stage_origin_maprfs_ClusterMapRFSDSource":                dataFormatAt("clusterHDFSConfigBean."),
	"com_streamsets_pipeline_stage_origin_maprstreams_MapRStreamsDSource":             dataFormatAt("maprstreamsSourceConfigBean."),
	"com_streamsets_pipeline_stage_origin_mqtt_MqttClientDSource":                     dataFormatAt("subscriberConf."),
	"com_streamsets_pipeline_stage_origin_rabbitmq_RabbitDSource":                     dataFormatAt("conf."),
	"com_streamsets_pipeline_stage_origin_redis_RedisDSource":                         dataFormatAt("redisOriginConfigBean."),
	"com_streamsets_pipeline_stage_origin_remote_RemoteDownloadDSource":               dataFormatAt("conf."),
	"com_streamsets_pipeline_stage_origin_spooldir_SpoolDirDSource":                   dataFormatAt("conf."),
	"com_streamsets_pipeline_stage_origin_tcp_TCPServerDSource":                       dataFormatAt("conf."),
	"com_streamsets_pipeline_stage_origin_websocketserver_WebSocketServerDPushSource": dataFormatAt(""),
	"com_streamsets_pipeline_stage_processor_http_HttpDProcessor":                     dataFormatAt("conf."),
	"com_streamsets_pipeline_stage_pubsub_origin_PubSubDSource":                       dataFormatAt("conf."),
	"com_streamsets_pipeline_stage_origin_s3_AmazonS3DSource": {
		"data_format": {
			StageConfig("s3ConfigBean.dataFormat"),
			ServiceConfig(dataFormatParserService, "dataFormat"),
		},
	},
}

// dataFormatAt builds the common data_format / datagram_data_format pair for
// stages whose data format bean lives under prefix.
func dataFormatAt(prefix string) Attributes {
	return Attributes{
		"data_format":          {StageConfig(prefix + "dataFormat")},
		"datagram_data_format": {StageConfig(prefix + "dataFormatConfig.datagramMode")},
	}
}

// attributeAliases maps attribute names from older engine releases to their
// current names, per stage.
var attributeAliases = map[string]map[string]string{
	"com_streamsets_pipeline_stage_destination_couchbase_CouchbaseConnectorDTarget": {
		"generate_unique_document_key": "generate_document_key",
		"unique_document_key_field":    "document_key_field",
	},
	"com_streamsets_pipeline_stage_destination_hdfs_HdfsDTarget": {
		"hadoop_fs_configuration":           "additional_configuration",
		"hadoop_fs_configuration_directory": "configuration_files_directory",
		"hadoop_fs_uri":                     "file_system_uri",
		"hdfs_user":                         "impersonation_user",
		"validate_hdfs_permissions":         "validate_permissions",
	},
	"com_streamsets_pipeline_stage_destination_snowflake_SnowflakeDTarget": {
		"cdc_data":            "processing_cdc_data",
		"stage_location":      "external_stage_location",
		"external_stage_name": "snowflake_stage_name",
	},
	"com_streamsets_pipeline_stage_origin_hdfs_HdfsDSource": {
		"hadoop_fs_configuration":           "additional_configuration",
		"hadoop_fs_configuration_directory": "configuration_files_directory",
		"hadoop_fs_uri":                     "file_system_uri",
		"hdfs_user":                         "impersonation_user",
	},
	"com_streamsets_pipeline_stage_origin_httpserver_HttpServerDPushSource": {
		"application_id": "list_of_application_ids",
	},
	"com_streamsets_pipeline_stage_origin_spooldir_SpoolDirDSource": {
		"max_files_in_directory": "max_files_soft_limit",
	},
	"com_streamsets_pipeline_stage_origin_startJob_StartJobDSource": {
		"delay_between_state_checks":                      "status_check_interval",
		"unique_task_name":                                "task_name",
		"url_of_control_hub_that_runs_the_specified_jobs": "control_hub_url",
	},
	"com_streamsets_pipeline_stage_origin_startPipeline_StartPipelineDSource": {
		"delay_between_state_checks": "status_check_interval",
		"control_hub_base_url":       "control_hub_url",
		"unique_task_name":           "task_name",
	},
}
