package pipeline

import (
	"strings"

	"github.com/google/uuid"
)

// Rules holds the monitoring rules exported alongside a pipeline.
type Rules struct {
	MetricsRuleDefinitions []*MetricRule    `json:"metricsRuleDefinitions"`
	DataRuleDefinitions    []*DataRule      `json:"dataRuleDefinitions"`
	DriftRuleDefinitions   []*DataDriftRule `json:"driftRuleDefinitions"`
	EmailIDs               []string         `json:"emailIds"`
}

// NewRules returns an empty rule set that encodes as empty lists.
func NewRules() Rules {
	return Rules{
		MetricsRuleDefinitions: []*MetricRule{},
		DataRuleDefinitions:    []*DataRule{},
		DriftRuleDefinitions:   []*DataDriftRule{},
		EmailIDs:               []string{},
	}
}

// DataRule samples records on a lane and alerts past a threshold.
type DataRule struct {
	ID                      string `json:"id"`
	Label                   string `json:"label"`
	Lane                    string `json:"lane"`
	Condition               string `json:"condition"`
	SamplingPercentage      int    `json:"samplingPercentage"`
	SamplingRecordsToRetain int    `json:"samplingRecordsToRetain"`
	AlertEnabled            bool   `json:"alertEnabled"`
	AlertText               string `json:"alertText"`
	ThresholdType           string `json:"thresholdType"`
	ThresholdValue          int    `json:"thresholdValue"`
	MinVolume               int    `json:"minVolume"`
	SendEmail               bool   `json:"sendEmail"`
	MeterEnabled            bool   `json:"meterEnabled"`
	Enabled                 bool   `json:"enabled"`
}

// NewDataRule returns a count-threshold data rule on lane with the engine
// defaults. The rule starts disabled.
func NewDataRule(lane, label, condition string) *DataRule {
	return &DataRule{
		ID:                      uuid.NewString(),
		Label:                   label,
		Lane:                    lane,
		Condition:               condition,
		SamplingPercentage:      5,
		SamplingRecordsToRetain: 10,
		AlertEnabled:            true,
		ThresholdType:           "COUNT",
		ThresholdValue:          100,
		MinVolume:               1000,
		MeterEnabled:            true,
	}
}

// Normalize upper-cases the threshold type, which users often give as
// "count" or "percentage".
func (r *DataRule) Normalize() {
	r.ThresholdType = strings.ToUpper(r.ThresholdType)
}

// DataDriftRule alerts when the shape of records on a lane changes.
type DataDriftRule struct {
	ID                      string `json:"id"`
	Label                   string `json:"label"`
	Lane                    string `json:"lane"`
	Condition               string `json:"condition"`
	SamplingPercentage      int    `json:"samplingPercentage"`
	SamplingRecordsToRetain int    `json:"samplingRecordsToRetain"`
	AlertEnabled            bool   `json:"alertEnabled"`
	AlertText               string `json:"alertText"`
	SendEmail               bool   `json:"sendEmail"`
	MeterEnabled            bool   `json:"meterEnabled"`
	Enabled                 bool   `json:"enabled"`
}

// NewDataDriftRule returns a drift rule on lane with the engine defaults.
func NewDataDriftRule(lane, label, condition string) *DataDriftRule {
	return &DataDriftRule{
		ID:                      uuid.NewString(),
		Label:                   label,
		Lane:                    lane,
		Condition:               condition,
		SamplingPercentage:      5,
		SamplingRecordsToRetain: 10,
		AlertEnabled:            true,
		AlertText:               "${alert:info()}",
		MeterEnabled:            true,
	}
}

// MetricRule alerts on a pipeline or stage metric.
type MetricRule struct {
	ID            string `json:"id"`
	AlertText     string `json:"alertText"`
	MetricType    string `json:"metricType"`
	MetricID      string `json:"metricId"`
	MetricElement string `json:"metricElement"`
	Condition     string `json:"condition"`
	SendEmail     bool   `json:"sendEmail"`
	Enabled       bool   `json:"enabled"`
}

// NewMetricRule returns a counter rule firing above 1000.
func NewMetricRule(alertText, metricID, metricElement string) *MetricRule {
	return &MetricRule{
		ID:            uuid.NewString(),
		AlertText:     alertText,
		MetricType:    "COUNTER",
		MetricID:      metricID,
		MetricElement: metricElement,
		Condition:     "${value() > 1000}",
	}
}
