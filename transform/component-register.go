package transform

import (
	"github.com/imfpipe/imfpipe/components"
)

// componentFuncs maps step type names used in pipe definitions to the
// registered component worker and launcher functions.
// TODO: add generic launcher function that matches JSON keys to config struct field names so we can have only one or two launchers.
var componentFuncs = MapComponentFuncs{
	"IndicatorInput":    ComponentRegistration{components.NewIndicatorInput, startIndicatorInput},
	"GenerateRows":      ComponentRegistration{components.NewGenerateRows, startGenerateRows},
	"FilterRows":        ComponentRegistration{components.NewFilterRows, startFilterRows},
	"CSVFileWriter":     ComponentRegistration{components.NewCsvFileWriter, startCSVFileWriter},
	"CopyFilesToS3":     ComponentRegistration{components.NewCopyFilesToS3, startCopyFilesToS3},
	"S3BucketList":      ComponentRegistration{components.NewS3BucketList, startS3BucketList},
	"SnowflakeLoader":   ComponentRegistration{components.NewSnowflakeLoader, startSnowflakeLoader},
	"TableAppend":       ComponentRegistration{components.NewTableAppend, startTableAppend},
	"SqlExec":           ComponentRegistration{components.NewSqlExec, startSqlExec},
	"StdOutPassThrough": ComponentRegistration{components.NewStdOutPassThrough, startStdOutPassThrough},
}
