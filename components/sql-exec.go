package components

import (
	"context"
	"fmt"
	"sync/atomic"

	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

type SqlExecConfig struct {
	Log                      logger.Logger
	Name                     string
	InputChan                chan stream.Record
	SqlQueryFieldName        string // input field holding the SQL statement to run.
	SqlRowsAffectedFieldName string // optional output field for the statement's rows-affected count.
	OutputDb                 shared.Connector
	StepWatcher              *stats.StepWatcher
	WaitCounter              ComponentWaiter
	PanicHandlerFn           PanicHandlerFunc
}

// NewSqlExec executes the SQL statement carried in each input record against
// OutputDb and forwards the record, optionally annotated with the number of
// rows affected. The swap and DDL steps of the table loads run through this.
func NewSqlExec(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*SqlExecConfig)
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
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok {
					cfg.InputChan = nil // disable this case.
					break
				}
				sqlText := rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.SqlQueryFieldName)
				res, err := cfg.OutputDb.ExecContext(context.Background(), sqlText)
				if err != nil {
					cfg.Log.Panic(fmt.Sprintf("error executing SQL '%v': %v", sqlText, err))
				}
				if cfg.SqlRowsAffectedFieldName != "" {
					rowsAffected, err := res.RowsAffected()
					if err != nil {
						cfg.Log.Panic(fmt.Sprintf("error checking number of rows affected after SQL '%v': %v", sqlText, err))
					}
					rec.SetData(cfg.SqlRowsAffectedFieldName, rowsAffected)
				}
				if rowSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
				atomic.AddInt64(&rowCount, 1)
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil {
				break
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}
