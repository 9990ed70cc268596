package components

import (
	"fmt"
	"io"
	"sync/atomic"

	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

// StdOutPassThroughConfig configures NewStdOutPassThrough.
type StdOutPassThroughConfig struct {
	Log             logger.Logger
	Name            string
	InputChan       chan stream.Record
	Writer          io.Writer // destination for the JSON rows, usually STDOUT.
	OutputFields    []string  // fields to print; empty means all fields of the first record.
	AbortAfterCount int64     // panic once this many records have passed; 0 disables.
	StepWatcher     *stats.StepWatcher
	WaitCounter     ComponentWaiter
	PanicHandlerFn  PanicHandlerFunc
}

// NewStdOutPassThrough prints each input record to the Writer as a JSON line
// and forwards it unchanged to the output channel. When OutputFields is empty
// the sorted keys of the first record define the printed fields for the whole
// stream.
func NewStdOutPassThrough(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*StdOutPassThroughConfig)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.Writer == nil {
			cfg.Log.Panic(cfg.Name, " bad config supplied: missing io.Writer")
		}
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
		firstTime := true
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // input exhausted; disable both cases and finish up.
					cfg.InputChan = nil
					controlChan = nil
					break
				}
				if firstTime {
					firstTime = false
					if len(cfg.OutputFields) == 0 {
						cfg.Log.Debug(cfg.Name, " defaulting to output all fields")
						cfg.OutputFields = rec.GetSortedDataMapKeys()
					}
				}
				if _, err := fmt.Fprintf(cfg.Writer, "%v\n", rec.GetJson(cfg.Log, cfg.OutputFields)); err != nil {
					cfg.Log.Panic(cfg.Name, " failed to output record: ", err)
				}
				if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
				count := atomic.AddInt64(&rowCount, 1)
				if cfg.AbortAfterCount != 0 && count >= cfg.AbortAfterCount {
					// Deliberate failure for smoke testing abort handling.
					cfg.Log.Panic(cfg.Name, " record count exceeded abort threshold")
				}
			case controlAction := <-controlChan:
				if controlAction.Action == Shutdown {
					controlAction.ResponseChan <- nil
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
			}
			if cfg.InputChan == nil {
				cfg.Log.Debug(cfg.Name, " breaking out of loop")
				break
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}
