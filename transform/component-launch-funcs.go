package transform

import (
	"os"
	"strconv"

	"github.com/imfpipe/imfpipe/components"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/imf"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/imfpipe/imfpipe/stream"
)

// TODO: simplify/consolidate the fact that getComponentWaiter() and setStepControlChan() must receive the same keys per step else shutdown() doesn't work!

// componentFactory is the signature of the component constructors registered
// in component-register.go, after wrapping by the registry.
type componentFactory func(cfg interface{}) (outputChan chan stream.Record, controlChan chan components.ControlAction)

// mustAtoi converts the named step data value to an int, panicking with the
// step name on bad input. Missing values return 0 unless required.
func mustAtoi(log logger.Logger, stepCanonicalName string, data map[string]string, key string, required bool) int {
	v := data[key]
	if v == "" && !required {
		return 0
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Panic(stepCanonicalName, " unable to parse ", key, " as an integer - check it exists in the pipe config: ", err)
	}
	return i
}

// registerStep saves the component's channels against the step name so later
// steps can consume its output and shutdown can reach it.
func registerStep(sgm StepGroupManager, stepName string, out chan stream.Record, control chan components.ControlAction) {
	sgm.setStepOutputChan(stepName, out)
	sgm.setStepControlChan(stepName, control)
}

func startIndicatorInput(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	client, err := imf.NewClient(&imf.ClientConfig{
		Log:            log,
		BaseUrl:        data["apiBaseUrl"],
		Dataset:        data["dataset"],
		TimeoutSeconds: mustAtoi(log, stepCanonicalName, data, "apiTimeoutSeconds", false),
	})
	if err != nil {
		log.Panic(stepCanonicalName, " unable to create DataMapper API client: ", err)
	}
	// An empty indicatorCodesCSV means fetch every indicator in the dataset.
	var indicatorCodes []string
	if data["indicatorCodesCSV"] != "" {
		indicatorCodes = helper.CsvToStringSliceTrimSpaces(data["indicatorCodesCSV"])
	}
	out, control := componentFunc(&components.IndicatorInputConfig{
		Log:            log,
		Name:           stepCanonicalName,
		Client:         client,
		IndicatorCodes: indicatorCodes,
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control)
}

func startGenerateRows(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.GenerateRowsConfig{
		Log:                    log,
		Name:                   stepCanonicalName,
		MapFieldNamesValuesCSV: data["fieldNamesValuesCSV"],
		FieldName4Sequence:     data["sequenceFieldName"],
		SleepIntervalSeconds:   mustAtoi(log, stepCanonicalName, data, "sleepIntervalSeconds", false),
		NumRows:                mustAtoi(log, stepCanonicalName, data, "numRows", true),
		StepWatcher:            stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:            sgm.getComponentWaiter(stepName),
		PanicHandlerFn:         panicHandlerFn})
	registerStep(sgm, stepName, out, control)
}

func startSqlExec(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.SqlExecConfig{
		Log:                      log,
		Name:                     stepCanonicalName,
		InputChan:                sgm.getStepOutputChan(data["readDataFromStep"]),
		SqlQueryFieldName:        data["sqlQueryFieldName"],
		SqlRowsAffectedFieldName: data["sqlRowsAffectedFieldName"],
		OutputDb:                 sgm.getGlobalTransformManager().getDBConnector(data["databaseConnectionName"]),
		StepWatcher:              stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:              sgm.getComponentWaiter(stepName),
		PanicHandlerFn:           panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startS3BucketList(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	// The bucket coordinate output fields get defaults here so downstream
	// steps in the same pipe can name them in their own config.
	if data["outputField4BucketName"] == "" {
		data["outputField4BucketName"] = components.Defaults.ChanField4BucketName
	}
	if data["outputField4BucketPrefix"] == "" {
		data["outputField4BucketPrefix"] = components.Defaults.ChanField4BucketPrefix
	}
	if data["outputField4BucketRegion"] == "" {
		data["outputField4BucketRegion"] = components.Defaults.ChanField4BucketRegion
	}
	out, control := componentFunc(&components.S3BucketListerConfig{
		Log:                               log,
		Name:                              stepCanonicalName,
		Region:                            data["bucketRegion"],
		BucketName:                        data["bucketName"],
		BucketPrefix:                      data["bucketPrefix"],
		ObjectNamePrefix:                  data["fileNamePrefix"],
		ObjectNameRegexp:                  data["fileNameRegexp"],
		OutputField4BucketName:            data["outputField4BucketName"],
		OutputField4BucketPrefix:          data["outputField4BucketPrefix"],
		OutputField4BucketRegion:          data["outputField4BucketRegion"],
		OutputField4FileName:              data["outputField4FileName"],
		OutputField4FileNameWithoutPrefix: data["outputField4FileNameWithoutPrefix"],
		StepWatcher:                       stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:                       sgm.getComponentWaiter(stepName),
		PanicHandlerFn:                    panicHandlerFn})
	registerStep(sgm, stepName, out, control)
}

func startSnowflakeLoader(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.SnowflakeLoaderConfig{
		Log:                     log,
		Name:                    stepCanonicalName,
		InputChan:               sgm.getStepOutputChan(data["readDataFromStep"]),
		InputChanField4FileName: data["fieldName4FileName"],
		Db:                      sgm.getGlobalTransformManager().getDBConnector(data["logicalConnectionName"]),
		TargetSchemaTableName:   rdbms.SchemaTable{SchemaTable: data["schemaTableName"]},
		StageName:               data["stageName"],
		DeleteAll:               helper.GetTrueFalseStringAsBool(data["deleteAllRows"]),
		FnGetSnowflakeSqlSlice:  components.GetSqlSliceSnowflakeCopyInto,
		StepWatcher:             stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:             sgm.getComponentWaiter(stepName),
		PanicHandlerFn:          panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startTableAppend(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.TableAppendConfig{
		Log:             log,
		Name:            stepCanonicalName,
		InputChan:       sgm.getStepOutputChan(data["readDataFromStep"]),
		OutputDb:        sgm.getGlobalTransformManager().getDBConnector(data["databaseConnectionName"]),
		CommitBatchSize: mustAtoi(log, stepCanonicalName, data, "commitBatchSize", true),
		TxtBatchNumRows: mustAtoi(log, stepCanonicalName, data, "txtBatchNumRows", true),
		// Row count verification settings are optional; the component falls
		// back to defaults.
		VerifyMaxAttempts:            mustAtoi(log, stepCanonicalName, data, "verifyMaxAttempts", false),
		VerifySleepSeconds:           mustAtoi(log, stepCanonicalName, data, "verifySleepSeconds", false),
		OutputChanField4RowsAppended: data["outputFieldName4RowsAppended"],
		SqlStatementGeneratorConfig: shared.SqlStatementGeneratorConfig{
			Log:             log,
			OutputSchema:    data["outputSchemaName"],
			SchemaSeparator: ".",
			OutputTable:     data["outputTable"],
			TargetKeyCols:   helper.TokensToOrderedMap(data["keyCols"]),
			TargetOtherCols: helper.TokensToOrderedMap(data["otherCols"])},
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startCSVFileWriter(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	if data["outputFieldName4FilePath"] == "" {
		data["outputFieldName4FilePath"] = components.Defaults.ChanField4CSVFileName
	}
	out, control := componentFunc(&components.CsvFileWriterConfig{
		Log:                               log,
		Name:                              stepCanonicalName,
		InputChan:                         sgm.getStepOutputChan(data["readDataFromStep"]),
		FileNamePrefix:                    data["fileNamePrefix"],
		FileNameSuffixAppendCreationStamp: helper.GetTrueFalseStringAsBool(data["fileNameSuffixAppendCreationStamp"]),
		FileNameSuffixDateFormat:          data["fileNameSuffixDateTimeFormat"],
		FileNameExtension:                 data["fileNameExtension"],
		UseGzip:                           helper.GetTrueFalseStringAsBool(data["useGzip"]),
		HeaderFields:                      helper.CsvToStringSliceTrimSpaces(data["headerFieldsCSV"]),
		OutputDir:                         data["outputDir"],
		MaxFileBytes:                      mustAtoi(log, stepCanonicalName, data, "maxFileBytes", true),
		MaxFileRows:                       mustAtoi(log, stepCanonicalName, data, "maxFileRows", true),
		OutputChanField4FilePath:          data["outputFieldName4FilePath"],
		StepWatcher:                       stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:                       sgm.getComponentWaiter(stepName),
		PanicHandlerFn:                    panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startCopyFilesToS3(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.CopyFilesToS3Config{
		Log:                        log,
		Name:                       stepCanonicalName,
		InputChan:                  sgm.getStepOutputChan(data["readDataFromStep"]),
		FileNameChanField:          data["inputFieldName4FilePath"],
		BucketName:                 data["bucketName"],
		BucketPrefix:               data["bucketPrefix"],
		Region:                     data["bucketRegion"],
		RemoveInputFiles:           helper.GetTrueFalseStringAsBool(data["removeInputFiles"]),
		OutputChanField4ObjectName: data["outputFieldName4ObjectName"],
		StepWatcher:                stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:                sgm.getComponentWaiter(stepName),
		PanicHandlerFn:             panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startFilterRows(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.FilterRowsConfig{
		Log:            log,
		Name:           stepCanonicalName,
		InputChan:      sgm.getStepOutputChan(data["readDataFromStep"]),
		FilterType:     components.FilterType(data["filterType"]),
		FilterMetadata: components.FilterMetadata(data["filterMetadata"]),
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startStdOutPassThrough(log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc componentFactory) {
	data := sg.Steps[stepName].Data
	// An empty outputFieldsCsv means write all fields found on the input
	// stream.
	var outputFields []string
	if data["outputFieldsCsv"] != "" {
		outputFields = helper.CsvToStringSliceTrimSpaces(data["outputFieldsCsv"])
	}
	out, control := componentFunc(&components.StdOutPassThroughConfig{
		Log:             log,
		Name:            stepCanonicalName,
		Writer:          os.Stdout,
		OutputFields:    outputFields,
		AbortAfterCount: int64(mustAtoi(log, stepCanonicalName, data, "abortAfterNumRecords", false)),
		InputChan:       sgm.getStepOutputChan(data["readDataFromStep"]),
		StepWatcher:     stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:     sgm.getComponentWaiter(stepName),
		PanicHandlerFn:  panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}
