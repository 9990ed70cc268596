package components

import (
	"context"
	"sync/atomic"
	"time"

	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/imf"
	"github.com/imfpipe/imfpipe/logger"
	s "github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

type IndicatorInputConfig struct {
	Log            logger.Logger
	Name           string
	Client         imf.Client // DataMapper API client.
	IndicatorCodes []string   // optional explicit codes; when empty, all indicators for the client's dataset are fetched.
	IngestionTime  time.Time  // optional; zero value means now in UTC. One timestamp is shared by all rows of a run.
	StepWatcher    *s.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewIndicatorInput fetches indicator values from the DataMapper API and
// produces one flattened record per (indicator, country, year) onto the
// output channel.
func NewIndicatorInput(i interface{}) (chan stream.Record, chan ControlAction) {
	cfg := i.(*IndicatorInputConfig)
	outputChan := make(chan stream.Record, int(c.ChanSize))
	controlChan := make(chan ControlAction, 1) // make a control channel that receives a chan error.
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ingestionTime := cfg.IngestionTime
		if ingestionTime.IsZero() {
			ingestionTime = time.Now().UTC()
		}
		// Resolve the list of indicator codes up front.
		codes := cfg.IndicatorCodes
		if len(codes) == 0 { // if no explicit codes were supplied...
			indicators, err := cfg.Client.Indicators(ctx)
			if err != nil {
				cfg.Log.Panic(cfg.Name, " unable to fetch indicators: ", err)
			}
			codes = make([]string, 0, len(indicators))
			for _, ind := range indicators {
				codes = append(codes, ind.Code)
			}
		}
		cfg.Log.Info(cfg.Name, " is running with ", len(codes), " indicators")
		for _, code := range codes { // for each indicator...
			values, err := cfg.Client.IndicatorValues(ctx, code)
			if err != nil {
				cfg.Log.Panic(cfg.Name, " unable to fetch values for indicator ", code, ": ", err)
			}
			for _, rec := range imf.Flatten(cfg.Log, code, values, ingestionTime) { // for each flattened row...
				if rowSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
				atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
			}
			// Check for shutdown requests between indicators.
			select {
			case controlAction := <-controlChan: // if we have been asked to shutdown...
				cancel()
				controlAction.ResponseChan <- nil // respond that we're done with a nil error.
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			default: // else we can continue...
			}
		}
		close(outputChan) // end gracefully; tell downstream components that we're done.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}
