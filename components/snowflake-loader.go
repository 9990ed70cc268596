package components

import (
	"context"
	"fmt"
	"path"
	"sync/atomic"

	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

// SnowflakeSqlBuilderFunc returns the SQL statements NewSnowflakeLoader
// executes per input file.
type SnowflakeSqlBuilderFunc func(tableName rdbms.SchemaTable, stageName string, fileName string, force bool) []string

type SnowflakeLoaderConfig struct {
	Log                     logger.Logger
	Name                    string
	InputChan               chan stream.Record
	Db                      shared.Connector        // target Snowflake connection.
	InputChanField4FileName string                  // input record field holding the file name to load.
	StageName               string                  // external stage over the S3 bucket holding the files.
	TargetSchemaTableName   rdbms.SchemaTable       // [schema.]table to load into.
	DeleteAll               bool                    // delete all target rows before loading.
	FnGetSnowflakeSqlSlice  SnowflakeSqlBuilderFunc // builds the SQL executed per input row.
	StepWatcher             *stats.StepWatcher
	WaitCounter             ComponentWaiter
	PanicHandlerFn          PanicHandlerFunc
}

// NewSnowflakeLoader executes COPY INTO for each file name arriving on the
// input channel, loading from the configured external stage into the target
// table. Autocommit is turned off and a single commit happens after the input
// closes, so a failed or shut down run leaves the target untouched.
// Input records pass through to the output channel.
func NewSnowflakeLoader(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*SnowflakeLoaderConfig)
	outputChan = make(chan stream.Record, int(c.ChanSize))
	controlChan = make(chan ControlAction, 1)
	var rollbackRequired bool
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		cfg.Log.Info(cfg.Name, " is running")
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		var rowCount int64
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		tx, err := cfg.Db.Begin()
		if err != nil {
			cfg.Log.Panic(cfg.Name, " received error starting Snowflake transaction: ", err)
		}
		rollbackRequired = true
		defer rollbackIfNeeded(cfg.Log, cfg.Name, tx, &rollbackRequired)
		runStatement := func(stmt string) (shutdown bool) {
			result, err, shutdown := execInterruptible(tx, controlChan, stmt)
			if shutdown {
				cfg.Log.Info(cfg.Name, " shutdown")
				return true
			}
			if result != nil {
				if rows, e := result.RowsAffected(); e == nil {
					cfg.Log.Info(cfg.Name, " rows affected: ", rows)
				} // rows affected can be unavailable for DDL; not an error.
			}
			if err != nil {
				rollbackIfNeeded(cfg.Log, cfg.Name, tx, &rollbackRequired)
				cfg.Log.Panic(cfg.Name, " error received while executing SQL: '", stmt, "': ", err)
			}
			return false
		}
		if runStatement("alter session set autocommit = false") {
			return
		}
		cfg.Log.Debug(cfg.Name, " set autocommit false")
		var force bool
		if cfg.DeleteAll { // reload mode: empty the table inside this tx first.
			if runStatement(fmt.Sprintf("delete from %v", cfg.TargetSchemaTableName.SchemaTable)) {
				return
			}
			force = true // the files were loaded before; force so COPY doesn't skip them.
		}
		for cfg.InputChan != nil {
			select {
			case ctl := <-controlChan:
				if ctl.Action == Shutdown {
					// Rollback happens via the deferred func.
					ctl.ResponseChan <- nil
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
			case rec, ok := <-cfg.InputChan:
				if !ok { // no more files; disable both cases and commit below.
					cfg.InputChan = nil
					controlChan = nil
					cfg.Log.Debug(cfg.Name, " breaking out of loop")
					continue
				}
				fileName := rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.InputChanField4FileName)
				cfg.Log.Info(cfg.Name, " loading into table '", cfg.TargetSchemaTableName.SchemaTable, "' from stage '", cfg.StageName, "' file name '", fileName, "'")
				rollbackRequired = true
				for _, stmt := range cfg.FnGetSnowflakeSqlSlice(cfg.TargetSchemaTableName, cfg.StageName, fileName, force) {
					cfg.Log.Debug(cfg.Name, " executing query: ", stmt)
					if runStatement(stmt) {
						return
					}
				}
				if sentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !sentOK {
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
				atomic.AddInt64(&rowCount, 1)
			}
		}
		// Commit everything; without this the deferred rollback undoes the
		// whole load.
		if err := tx.Commit(); err != nil {
			cfg.Log.Panic(cfg.Name, " received error while executing commit: ", err)
		}
		rollbackRequired = false
		cfg.Log.Debug(cfg.Name, " commit complete")
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}

// execInterruptible runs the statement in a goroutine so a shutdown request
// can cancel a long-running query via context.
func execInterruptible(tx shared.Transacter, controlChan chan ControlAction, query string) (res shared.Result, err error, shutdown bool) {
	doneChan := make(chan struct{}, 1)
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	go func() {
		res, err = tx.ExecContext(ctx, query)
		doneChan <- struct{}{}
	}()
	select {
	case ctl := <-controlChan:
		cancelFunc()
		// Rollback is deferred in the caller.
		ctl.ResponseChan <- nil
		return nil, err, true
	case <-doneChan:
	}
	return res, err, false
}

func rollbackIfNeeded(log logger.Logger, stepName string, tx shared.Transacter, rollbackRequired *bool) {
	log.Debug(stepName, " deferred rollback: required = ", *rollbackRequired)
	if !*rollbackRequired {
		return
	}
	err := tx.Rollback()
	*rollbackRequired = false
	if err != nil {
		log.Panic(stepName, " received error while executing rollback: ", err)
	}
	log.Info(stepName, " rollback complete")
}

// GetSqlSliceSnowflakeCopyInto builds the COPY INTO statement for one staged
// file.
func GetSqlSliceSnowflakeCopyInto(schemaTableName rdbms.SchemaTable, stageName string, fileName string, force bool) []string {
	stagedFile := path.Join(stageName, fileName)
	forceSql := ""
	if force {
		forceSql = " force=true"
	}
	return []string{fmt.Sprintf("copy into %v from '@%v'%v", schemaTableName.SchemaTable, stagedFile, forceSql)}
}
