package actions

import (
	"fmt"
)

// LoadConfig is the generic config populated by the CLI for all 'load'
// subcommands. Each action converts it to its specific config via the
// registered FnSetupCfg.
type LoadConfig struct {
	// Connections
	Connections  ConnectionHandler
	TargetString ConnectionObject // <connection>.[<schema>.]<table>
	// Generic
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
	RepeatInterval            int `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	// DataMapper API
	ApiBaseUrl        string `errorTxt:"DataMapper API base URL"`
	Dataset           string `errorTxt:"DataMapper dataset"`
	IndicatorCodesCsv string `errorTxt:"indicator codes CSV"`
	ApiTimeoutSeconds int    `errorTxt:"API timeout seconds"`
	// Year range filter (0 means open-ended)
	YearFrom int
	YearTo   int
	// Append/commit tuning
	CommitBatchSize string
	AppendTarget    bool
	// Staging table verification (stream action)
	VerifyMaxAttempts  int
	VerifySleepSeconds int
	// Snowflake stage + S3 (stage action)
	SnowStageName     string `errorTxt:"Snowflake stage"`
	BucketRegion      string `errorTxt:"s3 region"`
	BucketName        string `errorTxt:"s3 bucket"`
	BucketPrefix      string `errorTxt:"s3 prefix"`
	CsvFileNamePrefix string `errorTxt:"csv file name prefix"`
	CsvMaxFileRows    string `errorTxt:"csv max file rows"`
	CsvMaxFileBytes   string `errorTxt:"csv max file bytes"`
}

// getYearFilterRule returns a JsonLogic rule that keeps rows whose YEAR field
// falls inside the supplied range. Zero values leave the range open-ended.
func getYearFilterRule(yearFrom int, yearTo int) string {
	if yearTo == 0 {
		yearTo = 9999
	}
	return fmt.Sprintf(`{"and":[{">=":[{"var":"YEAR"},%v]},{"<=":[{"var":"YEAR"},%v]}]}`, yearFrom, yearTo)
}
