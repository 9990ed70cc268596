package actions

import (
	"fmt"

	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms"
	"github.com/imfpipe/imfpipe/rdbms/shared"
)

type CreateTableConfig struct {
	// Connections
	Connections    ConnectionHandler
	SourceString   ConnectionObject
	TgtConnDetails *shared.ConnectionDetails
	// Generic
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	ExecuteDDL       bool
	StackDumpOnPanic bool
	SnowSchemaTable  rdbms.SchemaTable
	WithStagingTable bool // also emit DDL for the <table>_STAGING table used by stream loads.
}

// RunCreateTable prints or executes DDL to create the indicator values target table
// and optionally its staging twin.
func RunCreateTable(cfg *CreateTableConfig) error {
	// Setup logging.
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	log := logger.NewLogger("imfpipe", cfg.LogLevel, true)
	// Get real connection details.
	var err error
	if cfg.TgtConnDetails, err = cfg.Connections.GetConnectionDetails(cfg.SourceString.GetConnectionName()); err != nil {
		return err
	}
	cfg.SnowSchemaTable.SchemaTable = cfg.SourceString.GetObject()
	if cfg.SnowSchemaTable.SchemaTable == "" { // if the target table is not supplied...
		cfg.SnowSchemaTable.SchemaTable = constants.SnowflakeTargetTableDefault
	}
	if err = helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	printLogFn := getPrintLogFunc(log, !cfg.ExecuteDDL) // use logger if we're executing DDL.
	ddl := getSnowflakeIndicatorTableDDL(cfg.SnowSchemaTable.String(), cfg.WithStagingTable, !cfg.ExecuteDDL)
	for _, stmt := range ddl {
		printLogFn(stmt)
		if cfg.ExecuteDDL {
			fn := func() error {
				return rdbms.SnowflakeDDLExec(log, shared.GetDsnConnectionDetails(cfg.TgtConnDetails), stmt)
			}
			mustExecFn(log, printLogFn, fn)
		}
	}
	return nil
}

// getSnowflakeIndicatorTableDDL returns DDL for the flattened indicator values table,
// keyed on (INDICATOR, COUNTRY_CODE, YEAR).
func getSnowflakeIndicatorTableDDL(tableName string, withStagingTable bool, addTerminator bool) []string {
	terminator := ""
	if addTerminator {
		terminator = ";"
	}
	s := make([]string, 0, 2)
	s = append(s, fmt.Sprintf(`create table if not exists %v (
  INDICATOR varchar(128),
  COUNTRY_CODE varchar(16),
  YEAR number,
  VALUE float,
  INGESTION_TIMESTAMP timestamp_ntz)%v`, tableName, terminator))
	if withStagingTable {
		s = append(s, fmt.Sprintf("create table if not exists %v%v like %v%v",
			tableName, constants.SnowflakeStagingSuffix, tableName, terminator))
	}
	return s
}
