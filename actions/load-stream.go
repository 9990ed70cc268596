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

type LoadStreamConfig struct {
	TargetConnection          string `errorTxt:"target <connection>" mandatory:"yes"`
	TgtConnDetails            *shared.ConnectionDetails
	SnowSchemaTable           rdbms.SchemaTable
	ApiBaseUrl                string
	Dataset                   string
	IndicatorCodesCsv         string
	ApiTimeoutSeconds         int
	YearFrom                  int
	YearTo                    int
	CommitBatchSize           string
	VerifyMaxAttempts         int
	VerifySleepSeconds        int
	RepeatInterval            int `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// SetupLoadStream copies values from genericCfg to actionCfg ready for a DataMapper
// to Snowflake staging-table load with an atomic swap cut-over.
func SetupLoadStream(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*LoadStreamConfig)
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
	tgt.CommitBatchSize = src.CommitBatchSize
	tgt.VerifyMaxAttempts = src.VerifyMaxAttempts
	tgt.VerifySleepSeconds = src.VerifySleepSeconds
	return nil
}

// RunLoadStream appends indicator values to the <table>_STAGING table, waits for the
// appended row count to become visible, then swaps the staging table with the target
// so readers see an atomic cut-over. The target table itself is never truncated.
func RunLoadStream(cfg interface{}) error {
	cfgStream := cfg.(*LoadStreamConfig)
	// Setup logging.
	if cfgStream.ExportConfigType != "" { // if the user wants the transform on STDOUT...
		cfgStream.LogLevel = "error"
	}
	log := logger.NewLogger("imfpipe", cfgStream.LogLevel, cfgStream.StackDumpOnPanic)
	// Validate switches.
	if err := helper.ValidateStructIsPopulated(cfgStream); err != nil {
		return err
	}
	// Get specific connections.
	connTgt := shared.GetDsnConnectionDetails(cfgStream.TgtConnDetails)
	// Staging table name = target + suffix.
	stagingObject := cfgStream.SnowSchemaTable.AppendSuffix(constants.SnowflakeStagingSuffix)
	stagingSchemaTable := rdbms.SchemaTable{SchemaTable: stagingObject}
	// Set up the transform.
	m := make(map[string]string)
	m["${sleepSeconds}"] = strconv.Itoa(cfgStream.RepeatInterval)
	if cfgStream.RepeatInterval > 0 { // if there is a repeat interval...
		m["${repeatTransform}"] = transform.TransformRepeating // set the loop interval to repeat the transform.
	} else { // else we should execute this transform once...
		m["${repeatTransform}"] = transform.TransformOnce
	}
	// Source API
	m["${apiBaseUrl}"] = cfgStream.ApiBaseUrl
	m["${dataset}"] = cfgStream.Dataset
	m["${indicatorCodes}"] = cfgStream.IndicatorCodesCsv
	m["${apiTimeoutSeconds}"] = strconv.Itoa(cfgStream.ApiTimeoutSeconds)
	m["${yearFilterRule}"] = mustJsonEscape(log, getYearFilterRule(cfgStream.YearFrom, cfgStream.YearTo))
	// Target
	m["${targetEnv}"] = cfgStream.TargetConnection
	m["${tgtDsn}"] = connTgt.Dsn
	m["${targetObject}"] = cfgStream.SnowSchemaTable.SchemaTable
	m["${targetSchema}"] = cfgStream.SnowSchemaTable.GetSchema()
	m["${stagingObject}"] = stagingObject
	m["${stagingTable}"] = stagingSchemaTable.GetTable()
	m["${commitBatchSize}"] = cfgStream.CommitBatchSize
	if cfgStream.CommitBatchSize == "" { // if the commit batch size is not supplied...
		m["${commitBatchSize}"] = strconv.Itoa(constants.AppendBatchNumRowsDefault)
	}
	// Row count verification
	verifyMaxAttempts := cfgStream.VerifyMaxAttempts
	if verifyMaxAttempts == 0 {
		verifyMaxAttempts = constants.StagingVerifyMaxAttempts
	}
	verifySleepSeconds := cfgStream.VerifySleepSeconds
	if verifySleepSeconds == 0 {
		verifySleepSeconds = constants.StagingVerifySleepSeconds
	}
	m["${verifyMaxAttempts}"] = strconv.Itoa(verifyMaxAttempts)
	m["${verifySleepSeconds}"] = strconv.Itoa(verifySleepSeconds)
	mustReplaceInStringUsingMapKeyVals(&jsonLoadStream, m)
	log.Debug("replaced reference JSON for stream load ", jsonLoadStream)
	// Execute or export the transform.
	if cfgStream.ExportConfigType == "" { // if we should execute the transform...
		ti := transform.NewSafeMapTransformInfo()
		_, err := transform.LaunchTransformJson(log, ti, jsonLoadStream, true, cfgStream.StatsDumpFrequencySeconds)
		if err != nil {
			return errors.Wrap(err, "unable to unmarshal reference JSON to build the stream load pipe")
		}
	} else { // else we should write the transform to STDOUT...
		return outputPipeDefinition(log, jsonLoadStream, cfgStream.ExportConfigType, cfgStream.ExportIncludeConnections)
	}
	return nil
}
