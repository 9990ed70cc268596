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

type LoadSnapshotConfig struct {
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
	AppendTarget              bool
	RepeatInterval            int `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// SetupLoadSnapshot copies values from genericCfg to actionCfg ready for a DataMapper
// to Snowflake snapshot load.
func SetupLoadSnapshot(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*LoadSnapshotConfig)
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
	tgt.AppendTarget = src.AppendTarget
	return nil
}

// RunLoadSnapshot fetches indicator values from the DataMapper API and batch-INSERTs
// them into the Snowflake target table, optionally truncating the target first.
func RunLoadSnapshot(cfg interface{}) error {
	cfgSnap := cfg.(*LoadSnapshotConfig)
	// Setup logging.
	if cfgSnap.ExportConfigType != "" { // if the user wants the transform on STDOUT...
		cfgSnap.LogLevel = "error"
	}
	log := logger.NewLogger("imfpipe", cfgSnap.LogLevel, cfgSnap.StackDumpOnPanic)
	// Validate switches.
	if err := helper.ValidateStructIsPopulated(cfgSnap); err != nil {
		return err
	}
	// Get specific connections.
	connTgt := shared.GetDsnConnectionDetails(cfgSnap.TgtConnDetails)
	// Set up the transform.
	m := make(map[string]string)
	m["${sleepSeconds}"] = strconv.Itoa(cfgSnap.RepeatInterval)
	if cfgSnap.RepeatInterval > 0 { // if there is a repeat interval...
		m["${repeatTransform}"] = transform.TransformRepeating // set the loop interval to repeat the transform.
	} else { // else we should execute this transform once...
		m["${repeatTransform}"] = transform.TransformOnce
	}
	// Source API
	m["${apiBaseUrl}"] = cfgSnap.ApiBaseUrl
	m["${dataset}"] = cfgSnap.Dataset
	m["${indicatorCodes}"] = cfgSnap.IndicatorCodesCsv
	m["${apiTimeoutSeconds}"] = strconv.Itoa(cfgSnap.ApiTimeoutSeconds)
	m["${yearFilterRule}"] = mustJsonEscape(log, getYearFilterRule(cfgSnap.YearFrom, cfgSnap.YearTo))
	// Target
	m["${targetEnv}"] = cfgSnap.TargetConnection
	m["${tgtDsn}"] = connTgt.Dsn
	m["${targetObject}"] = cfgSnap.SnowSchemaTable.SchemaTable
	m["${targetSchema}"] = cfgSnap.SnowSchemaTable.GetSchema()
	m["${targetTable}"] = cfgSnap.SnowSchemaTable.GetTable()
	if cfgSnap.AppendTarget { // if the user wants to keep existing target rows...
		m["${truncateTargetEnabled1orDisabled0}"] = "0"
	} else {
		m["${truncateTargetEnabled1orDisabled0}"] = "1"
	}
	m["${commitBatchSize}"] = cfgSnap.CommitBatchSize
	if cfgSnap.CommitBatchSize == "" { // if the commit batch size is not supplied...
		m["${commitBatchSize}"] = strconv.Itoa(constants.AppendBatchNumRowsDefault)
	}
	mustReplaceInStringUsingMapKeyVals(&jsonLoadSnapshot, m)
	log.Debug("replaced reference JSON for snapshot load ", jsonLoadSnapshot)
	// Execute or export the transform.
	if cfgSnap.ExportConfigType == "" { // if we should execute the transform...
		ti := transform.NewSafeMapTransformInfo()
		_, err := transform.LaunchTransformJson(log, ti, jsonLoadSnapshot, true, cfgSnap.StatsDumpFrequencySeconds)
		if err != nil {
			return errors.Wrap(err, "unable to unmarshal reference JSON to build the snapshot load pipe")
		}
	} else { // else we should write the transform to STDOUT...
		return outputPipeDefinition(log, jsonLoadSnapshot, cfgSnap.ExportConfigType, cfgSnap.ExportIncludeConnections)
	}
	return nil
}
