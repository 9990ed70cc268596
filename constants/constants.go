package constants

const (
	ChanSize                     = 20000
	StatsCaptureFrequencySeconds = 5
	TimeFormatYearSeconds        = "20060102T150405" // used for human readable file names
	TimeFormatYearSecondsRegex   = "[0-9]{4}[0-9]{2}[0-9]{2}T[0-9]{6}"
	TimeFormatYearSecondsTZ      = "20060102T150405-0700" // includes the time zone and is compatible with Snowflake.
	EmojiBang                    = "\U0001F4A5"
	EnvVarPrefix                 = "IMFP" // prefix for environment variables in twelveFactorMode

	ActionFuncsCommandLoad      = "load"
	ActionFuncsSubCommandSnap   = "snapshot"
	ActionFuncsSubCommandStage  = "stage"
	ActionFuncsSubCommandStream = "stream"

	ConnectionTypeStdout    = "stdout"
	ConnectionTypeSnowflake = "snowflake"
	ConnectionTypeMock      = "mock"
	ConnectionTypeS3        = "s3"

	// DataMapper API defaults.
	ImfApiBaseUrl        = "https://www.imf.org/external/datamapper/api/v1"
	ImfApiDatasetDefault = "WEO"
	ImfApiTimeoutSeconds = 30

	// Snowflake load defaults.
	SnowflakeTargetTableDefault = "IMF_DATAMAPPER_INDICATORS"
	SnowflakeStagingSuffix      = "_STAGING"
	SnowflakeTokenFileDefault   = "/snowflake/session/token"
	// EnvVarSnowflakeTokenFile overrides the OAuth token file location.
	EnvVarSnowflakeTokenFile = EnvVarPrefix + "_SNOWFLAKE_TOKEN_FILE"
	SnowflakeLoginTimeoutSecs   = 30
	SnowflakeQueryTimeoutSecs   = 120
	StagingVerifyMaxAttempts    = 30
	StagingVerifySleepSeconds   = 1
	AppendBatchNumRowsDefault   = 1000

	// Field names used by the flattened indicator records. They match the
	// target table columns.
	FieldIndicator          = "INDICATOR"
	FieldCountryCode        = "COUNTRY_CODE"
	FieldYear               = "YEAR"
	FieldValue              = "VALUE"
	FieldIngestionTimestamp = "INGESTION_TIMESTAMP"
)
