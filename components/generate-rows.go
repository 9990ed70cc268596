package components

import (
	"strings"
	"sync/atomic"
	"time"

	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

type GenerateRowsConfig struct {
	Log                    logger.Logger
	Name                   string
	FieldName4Sequence     string // optional output field holding the 1-based row number.
	MapFieldNamesValuesCSV string // optional CSV of fieldName:fieldValue tokens set on every generated row.
	NumRows                int
	SleepIntervalSeconds   int // pause between rows; 0 emits as fast as the consumer allows.
	StepWatcher            *stats.StepWatcher
	WaitCounter            ComponentWaiter
	PanicHandlerFn         PanicHandlerFunc
}

// NewGenerateRows emits NumRows records built from the configured
// fieldName:value pairs, optionally numbered via FieldName4Sequence. At least
// one of the two outputs must be configured.
func NewGenerateRows(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*GenerateRowsConfig)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	seqField := strings.TrimSpace(cfg.FieldName4Sequence)
	fieldValues, err := helper.CsvStringOfTokensToMap(cfg.Log, cfg.MapFieldNamesValuesCSV)
	if err != nil {
		cfg.Log.Panic(cfg.Name, " unable to parse field name:value pairs in GenerateRows step: ", err)
	}
	if len(fieldValues) == 0 && seqField == "" {
		cfg.Log.Panic(cfg.Name, " received bad config - please supply either a field name for output row sequence number or a CSV of field-name:values")
	}
	ackShutdown := func(ca ControlAction) {
		ca.ResponseChan <- nil
		cfg.Log.Info(cfg.Name, " shutdown")
	}
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
		for idx := 0; idx < cfg.NumRows; idx++ {
			if cfg.SleepIntervalSeconds > 0 {
				cfg.Log.Debug(cfg.Name, " sleeping ", cfg.SleepIntervalSeconds, " seconds")
				// Sleep while remaining responsive to shutdown. This is tested for!
				select {
				case <-time.After(time.Duration(cfg.SleepIntervalSeconds) * time.Second):
				case controlAction := <-controlChan:
					ackShutdown(controlAction)
					return
				}
			}
			rec := stream.NewRecord()
			for k, v := range fieldValues {
				rec.SetData(k, v)
			}
			atomic.AddInt64(&rowCount, 1)
			if seqField != "" {
				rec.SetData(seqField, rowCount)
			}
			select {
			case outputChan <- rec:
			case controlAction := <-controlChan:
				ackShutdown(controlAction)
				return
			}
		}
		// TODO: find a way to notify clients that components can't be shutdown if they complete gracefully
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
