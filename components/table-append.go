package components

import (
	"fmt"
	"sync/atomic"
	"time"

	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	s "github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

type TableAppendConfig struct {
	Log                          logger.Logger
	Name                         string
	InputChan                    chan stream.Record // input rows to append to the target table.
	OutputDb                     shared.Connector   // target database connection for writes.
	CommitBatchSize              int                // commit interval in num rows.
	TxtBatchNumRows              int                // number of rows in a single SQL INSERT statement.
	VerifyMaxAttempts            int                // number of times to poll the target table row count after the final commit.
	VerifySleepSeconds           int                // seconds to sleep between row count polls.
	OutputChanField4RowsAppended string             // the field added to the single outputChan record holding the number of rows appended.
	shared.SqlStatementGeneratorConfig
	StepWatcher    *s.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewTableAppend INSERTs all input records into the target table using batched SQL text
// statements, committing every CommitBatchSize rows.
// After the final commit it polls the target table row count until it reaches the number
// of rows appended, confirming that all committed rows are visible before downstream
// steps act on the table.  If the count does not converge within
// VerifyMaxAttempts * VerifySleepSeconds the component panics, which aborts the transform
// before any downstream swap can run.
// On success it emits a single record holding the number of rows appended.
func NewTableAppend(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*TableAppendConfig)
	if cfg.OutputDb == nil {
		cfg.Log.Panic("Error, missing db connection in call to NewTableAppend.")
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic("Error, missing chan input in call to NewTableAppend.")
	}
	if cfg.CommitBatchSize == 0 {
		cfg.CommitBatchSize = c.AppendBatchNumRowsDefault
	}
	if cfg.TxtBatchNumRows == 0 {
		cfg.TxtBatchNumRows = c.AppendBatchNumRowsDefault
	}
	if cfg.TxtBatchNumRows > cfg.CommitBatchSize {
		cfg.Log.Panic("Error, the number of rows in the SQL text batch cannot be larger than the commit batch size")
	}
	if cfg.VerifyMaxAttempts == 0 {
		cfg.VerifyMaxAttempts = c.StagingVerifyMaxAttempts
	}
	if cfg.VerifySleepSeconds == 0 {
		cfg.VerifySleepSeconds = c.StagingVerifySleepSeconds
	}
	if cfg.OutputChanField4RowsAppended == "" {
		cfg.OutputChanField4RowsAppended = Defaults.ChanField4RowsAppended
	}
	shared.FixSqlStatementGeneratorConfig(&cfg.SqlStatementGeneratorConfig)
	// Cast the insert generator to enable text batch mode.
	sqlInsertGenerator, ok := cfg.OutputDb.GetDmlGenerator().NewInsertGenerator(&cfg.SqlStatementGeneratorConfig).(shared.SqlStmtTxtBatcher)
	if !ok {
		cfg.Log.Panic(cfg.Name, ", SQL text batch inserts are not supported")
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		cfg.Log.Info(cfg.Name, " is running")
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil { // if we have been given a stepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		var (
			tx           shared.Transacter
			err          error
			listIdx      int
			needNewTx    = true
			needNewBatch = true
			needExec     = false
			numRowsInTx  = 0
			rowsAppended = int64(0)
		)
		numCols := cfg.TargetKeyCols.Len() + cfg.TargetOtherCols.Len()
		values := make([]interface{}, numCols)
		fnExec := func() {
			_, err = tx.Exec(sqlInsertGenerator.GetStatement(), sqlInsertGenerator.GetValues()...)
			if err != nil {
				err2 := tx.Rollback()
				cfg.Log.Panic(cfg.Name, " error during exec of INSERT batch: ", err, err2)
			}
			needNewBatch = true
			needExec = false
		}
		fnCommit := func() {
			err = tx.Commit()
			if err != nil {
				cfg.Log.Panic(cfg.Name, " error committing transaction: ", err)
			}
			needNewTx = true
			numRowsInTx = 0
		}
		// Read input channel, add rows to the INSERT batch and exec/commit when full.
		for {
			select {
			case rec, ok := <-cfg.InputChan: // for each row of input...
				if !ok { // if the inputChan is closed...
					cfg.InputChan = nil // disable this case.
				} else {
					if needNewTx { // if we have not started a transaction...
						tx, err = cfg.OutputDb.Begin()
						if err != nil {
							cfg.Log.Panic(cfg.Name, " unable to start new transaction: ", err)
						}
						needNewTx = false
					}
					if needNewBatch { // if we need to start a new batch...
						sqlInsertGenerator.InitBatch(cfg.TxtBatchNumRows)
						needNewBatch = false
					}
					// Save values from all fields into a list of values.
					listIdx = 0 // reset the list index so the record values overwrite the list.
					rec.GetDataByKeys(cfg.Log, cfg.TargetKeyCols, &values, &listIdx)
					rec.GetDataByKeys(cfg.Log, cfg.TargetOtherCols, &values, &listIdx)
					txtBatchIsFull, err := sqlInsertGenerator.AddValuesToBatch(values)
					if err != nil {
						cfg.Log.Panic(err)
					}
					needExec = true
					if txtBatchIsFull { // if the batch is full...
						fnExec()
					}
					numRowsInTx++
					rowsAppended++
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
					if numRowsInTx >= cfg.CommitBatchSize {
						if needExec { // if there is a partial batch in this transaction...
							fnExec()
						}
						fnCommit()
					}
				}
			case controlAction := <-controlChan: // if we are told to shutdown...
				if !needNewTx { // if a transaction is open...
					_ = tx.Rollback()
				}
				controlAction.ResponseChan <- nil // signal that shutdown completed without error.
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil { // if all input rows were consumed...
				break
			}
		}
		// Exec and commit the final partial batch.
		if numRowsInTx > 0 {
			if needExec {
				fnExec()
			}
			fnCommit()
			cfg.Log.Debug(cfg.Name, " final exec + commit complete")
		}
		// Poll the target table until all appended rows are visible.
		if rowsAppended > 0 {
			if ok := tableAppendVerifyCount(cfg, rowsAppended); !ok {
				cfg.Log.Panic(cfg.Name, " timeout waiting for ", rowsAppended, " rows to be visible in table ", tableAppendSchemaTable(cfg))
			}
		}
		// Emit a single summary record for downstream steps.
		rec := stream.NewRecord()
		rec.SetData(cfg.OutputChanField4RowsAppended, rowsAppended)
		if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete with ", rowsAppended, " rows appended")
	}()
	return outputChan, controlChan
}

// tableAppendVerifyCount polls the target table row count until it matches the expected
// number of appended rows or attempts run out.
func tableAppendVerifyCount(cfg *TableAppendConfig, expected int64) bool {
	query := fmt.Sprintf("select count(*) from %v", tableAppendSchemaTable(cfg))
	for attempt := 1; attempt <= cfg.VerifyMaxAttempts; attempt++ {
		var count int64
		rows, err := cfg.OutputDb.Query(query)
		if err != nil {
			cfg.Log.Panic(cfg.Name, " error verifying table row count: ", err)
		}
		if rows.Next() {
			if err := rows.Scan(&count); err != nil {
				_ = rows.Close()
				cfg.Log.Panic(cfg.Name, " error scanning table row count: ", err)
			}
		}
		if err := rows.Close(); err != nil {
			cfg.Log.Panic(cfg.Name, " error closing row count results: ", err)
		}
		cfg.Log.Debug(cfg.Name, " verify attempt ", attempt, ": count = ", count, "; expected = ", expected)
		if count >= expected { // if all committed rows are visible...
			return true
		}
		time.Sleep(time.Duration(cfg.VerifySleepSeconds) * time.Second)
	}
	return false
}

func tableAppendSchemaTable(cfg *TableAppendConfig) string {
	if cfg.OutputSchema != "" {
		return cfg.OutputSchema + cfg.SchemaSeparator + cfg.OutputTable
	}
	return cfg.OutputTable
}
