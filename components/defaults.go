package components

// Defaults holds the well-known record field names that components use to
// pass file, bucket and Snowflake coordinates to each other. The '#' prefix
// keeps them clear of real data column names.
var Defaults = struct {
	ChanField4CSVFileName           string
	ChanField4FileName              string // path of a data file found in or destined for the S3 bucket.
	ChanField4FileNameWithoutPrefix string // the same file name with the bucket prefix stripped.
	ChanField4BucketName            string
	ChanField4BucketPrefix          string
	ChanField4BucketRegion          string
	ChanField4StageName             string // the Snowflake external stage name.
	ChanField4TableName             string // the Snowflake target table name.
	ChanField4RowsAppended          string // the number of rows appended by TableAppend.
}{
	ChanField4CSVFileName:           "#CSVFileName",
	ChanField4FileName:              "#DataFileName",
	ChanField4FileNameWithoutPrefix: "#DataFileNameWithoutPrefix",
	ChanField4BucketName:            "#BucketName",
	ChanField4BucketPrefix:          "#BucketPrefix",
	ChanField4BucketRegion:          "#BucketRegion",
	ChanField4StageName:             "#SnowflakeStageName",
	ChanField4TableName:             "#SnowflakeTargetTableName",
	ChanField4RowsAppended:          "#RowsAppended",
}
