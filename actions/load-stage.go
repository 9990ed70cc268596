package actions

import (
	"strconv"

	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/imfpipe/imfpipe/transform"
	"github.com/pkg/errors"
)

type LoadStageConfig struct {
	TargetConnection          string `errorTxt:"target <connection>" mandatory:"yes"`
	TgtConnDetails            *shared.ConnectionDetails
	SnowSchemaTable           rdbms.SchemaTable
	SnowStageName             string `errorTxt:"Snowflake stage" mandatory:"yes"`
	BucketRegion              string `errorTxt:"s3 region" mandatory:"yes"`
	BucketName                string `errorTxt:"s3 bucket" mandatory:"yes"`
	BucketPrefix              string `errorTxt:"s3 prefix"`
	CsvFileNamePrefix         string `errorTxt:"csv file name prefix" mandatory:"yes"`
	CsvMaxFileRows            string `errorTxt:"csv max file rows"`
	CsvMaxFileBytes           string `errorTxt:"csv max file bytes"`
	ApiBaseUrl                string
	Dataset                   string
	IndicatorCodesCsv         string
	ApiTimeoutSeconds         int
	YearFrom                  int
	YearTo                    int
	AppendTarget              bool
	RepeatInterval            int `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// SetupLoadStage copies values from genericCfg to actionCfg ready for a DataMapper
// to Snowflake load via gzip CSV files staged in S3.
func SetupLoadStage(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*LoadStageConfig)
	var err error
	// Setup real connection details.
	if tgt.TgtConnDetails, err = src.Connections.GetConnectionDetails(src.TargetString.GetConnectionName()); err != nil {
		return err
	}
	// General
	tgt.StackDumpOnPanic = src.StackDumpOnPanic
	tgt.StatsDumpFrequencySeconds = src.StatsDumpFrequencySeconds
	tgt.LogLevel = src.LogLevel
	tgt.ExportConfigType = src.ExportConfigType
	tgt.ExportIncludeConnections = src.ExportIncludeConnections
	tgt.RepeatInterval = src.RepeatInterval
	// Source API
	tgt.ApiBaseUrl = src.ApiBaseUrl
	tgt.Dataset = src.Dataset
	tgt.IndicatorCodesCsv = src.IndicatorCodesCsv
	tgt.ApiTimeoutSeconds = src.ApiTimeoutSeconds
	tgt.YearFrom = src.YearFrom
	tgt.YearTo = src.YearTo
	// Target
	tgt.TargetConnection = src.TargetString.GetConnectionName()
	tgt.SnowSchemaTable.SchemaTable = src.TargetString.GetObject()
	if tgt.SnowSchemaTable.SchemaTable == "" { // if the target table is not supplied...
		tgt.SnowSchemaTable.SchemaTable = constants.SnowflakeTargetTableDefault
	}
	tgt.SnowStageName = src.SnowStageName
	tgt.AppendTarget = src.AppendTarget
	// CSV
	tgt.CsvFileNamePrefix = src.CsvFileNamePrefix
	if tgt.CsvFileNamePrefix == "" { // if the CSV file name prefix is not supplied...
		tgt.CsvFileNamePrefix = tgt.SnowSchemaTable.GetTable() // use the target table name.
	}
	tgt.CsvMaxFileRows = src.CsvMaxFileRows
	if tgt.CsvMaxFileRows == "" {
		tgt.CsvMaxFileRows = "100000"
	}
	tgt.CsvMaxFileBytes = src.CsvMaxFileBytes
	if tgt.CsvMaxFileBytes == "" {
		tgt.CsvMaxFileBytes = "104857600"
	}
	// S3
	tgt.BucketName = src.BucketName
	tgt.BucketPrefix = src.BucketPrefix
	tgt.BucketRegion = src.BucketRegion
	return nil
}

// RunLoadStage writes the flattened indicator rows to gzip CSV files, copies them to S3
// and issues COPY INTO against the target table via the named external stage.
func RunLoadStage(cfg interface{}) error {
	cfgStage := cfg.(*LoadStageConfig)
	// Setup logging.
	if cfgStage.ExportConfigType != "" { // if the user wants the transform on STDOUT...
		cfgStage.LogLevel = "error"
	}
	log := logger.NewLogger("imfpipe", cfgStage.LogLevel, cfgStage.StackDumpOnPanic)
	// Validate switches.
	if err := helper.ValidateStructIsPopulated(cfgStage); err != nil {
		return err
	}
	// Get specific connections.
	connTgt := shared.GetDsnConnectionDetails(cfgStage.TgtConnDetails)
	// Set up the transform.
	m := make(map[string]string)
	m["${sleepSeconds}"] = strconv.Itoa(cfgStage.RepeatInterval)
	if cfgStage.RepeatInterval > 0 { // if there is a repeat interval...
		m["${repeatTransform}"] = transform.TransformRepeating // set the loop interval to repeat the transform.
	} else { // else we should execute this transform once...
		m["${repeatTransform}"] = transform.TransformOnce
	}
	// Source API
	m["${apiBaseUrl}"] = cfgStage.ApiBaseUrl
	m["${dataset}"] = cfgStage.Dataset
	m["${indicatorCodes}"] = cfgStage.IndicatorCodesCsv
	m["${apiTimeoutSeconds}"] = strconv.Itoa(cfgStage.ApiTimeoutSeconds)
	m["${yearFilterRule}"] = mustJsonEscape(log, getYearFilterRule(cfgStage.YearFrom, cfgStage.YearTo))
	// CSV
	m["${fileNamePrefix}"] = cfgStage.CsvFileNamePrefix
	m["${csvMaxFileRows}"] = cfgStage.CsvMaxFileRows
	m["${csvMaxFileBytes}"] = cfgStage.CsvMaxFileBytes
	// S3
	m["${tgtS3BucketName}"] = cfgStage.BucketName
	m["${tgtS3BucketPrefix}"] = cfgStage.BucketPrefix
	m["${tgtS3Region}"] = cfgStage.BucketRegion
	// Target
	m["${targetEnv}"] = cfgStage.TargetConnection
	m["${tgtDsn}"] = connTgt.Dsn
	m["${snowflakeStage}"] = cfgStage.SnowStageName
	m["${snowflakeTable}"] = cfgStage.SnowSchemaTable.SchemaTable
	if cfgStage.AppendTarget { // if the user wants to keep existing target rows...
		m["${deleteTarget}"] = "false"
	} else {
		m["${deleteTarget}"] = "true"
	}
	mustReplaceInStringUsingMapKeyVals(&jsonLoadStage, m)
	log.Debug("replaced reference JSON for stage load ", jsonLoadStage)
	// Execute or export the transform.
	if cfgStage.ExportConfigType == "" { // if we should execute the transform...
		ti := transform.NewSafeMapTransformInfo()
		_, err := transform.LaunchTransformJson(log, ti, jsonLoadStage, true, cfgStage.StatsDumpFrequencySeconds)
		if err != nil {
			return errors.Wrap(err, "unable to unmarshal reference JSON to build the stage load pipe")
		}
	} else { // else we should write the transform to STDOUT...
		return outputPipeDefinition(log, jsonLoadStage, cfgStage.ExportConfigType, cfgStage.ExportIncludeConnections)
	}
	return nil
}
