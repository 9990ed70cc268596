package stats

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stream"
)

// StepWatcher samples a component's row counter and output channel depth on a
// ticker so throughput can be reported while the step runs. Components call
// StartWatching when they spin up and StopWatching on the way out.
type StepWatcher struct {
	log             logger.Logger
	stepName        string
	rowCountPtr     *int64 // points at the rowCount owned by the watched step.  // TODO: use chan directly instead of ptr to chan.
	chanPtr         *chan stream.Record
	chanLen         int64
	startTime       time.Time
	priorRowCount   int64     // snapshot used for the per-tick rows/sec delta.
	priorTime       time.Time // snapshot used for the per-tick rows/sec delta.
	rowsPerSecDelta int64
	rowsPerSecAvg   int64
	totalRows       int64
	ticker          *time.Ticker
	tickerDone      chan struct{}
	isRunning       helper.AtomBool
}

// Stats is the point-in-time snapshot rendered for logs and the serve API.
type Stats struct {
	StepName           string `json:"stepName"`
	StatusText         string `json:"statusText"`
	StatusEmoji        string `json:"statusEmoji"`
	ElapsedTimeSec     int    `json:"elapsedTimeSec"`
	TotalRowsProcessed int    `json:"totalRowsProcessed"`
	RowsPerSecondAvg   int    `json:"rowsPerSecondAvg"`
	RowsPerSecondDelta int    `json:"rowsPerSecondDelta"`
	OutputBufferLen    int    `json:"outputBufferLen"`
}

func NewStepWatcher(log logger.Logger, stepName string) *StepWatcher {
	return &StepWatcher{log: log, stepName: stepName, tickerDone: make(chan struct{})}
}

// StartWatching begins sampling the supplied row counter and channel. The
// counters are reset so a repeating step can call this once per iteration.
func (w *StepWatcher) StartWatching(rowCountPtr *int64, chanPtr *chan stream.Record) {
	w.rowCountPtr = rowCountPtr
	w.chanPtr = chanPtr // kept as a pointer so we can len() the live channel.
	w.startTime = time.Now()
	w.priorTime = w.startTime
	w.totalRows = 0
	w.isRunning.Set(true)
	w.CalculateStats()
	w.ticker = time.NewTicker(time.Second * constants.StatsCaptureFrequencySeconds)
	go func() {
		for {
			select {
			case <-w.ticker.C:
				w.CalculateStats()
			case <-w.tickerDone:
				return
			}
		}
	}()
}

// StopWatching halts the sampler and captures a final set of stats.
func (w *StepWatcher) StopWatching() {
	w.ticker.Stop()
	w.tickerDone <- struct{}{}
	w.CalculateStats()
	w.isRunning.Set(false)
	atomic.StoreInt64(&w.chanLen, 0)
}

// CalculateStats refreshes the delta and average rows/sec figures from the
// watched counters.
func (w *StepWatcher) CalculateStats() {
	elapsed := int64(time.Since(w.priorTime).Seconds())
	if elapsed < 1 {
		elapsed = 1 // avoid div by zero on the first tick.
	}
	rows := atomic.AddInt64(w.rowCountPtr, 0)
	deltaRows := rows - w.priorRowCount
	atomic.StoreInt64(&w.rowsPerSecDelta, deltaRows/elapsed)
	// The channel may already be closed by the time we len() it; that's fine.
	atomic.StoreInt64(&w.chanLen, int64(len(*w.chanPtr)))
	w.log.Debug("STATS: ", w.stepName, " processing ", w.rowsPerSecDelta, " rows per sec. Output channel length ", atomic.AddInt64(&w.chanLen, 0))
	atomic.StoreInt64(&w.priorRowCount, rows)
	w.priorTime = time.Now()
	// Accumulate via the delta since repeating steps reset their own counters.
	atomic.AddInt64(&w.totalRows, deltaRows)
	atomic.StoreInt64(&w.rowsPerSecAvg,
		atomic.AddInt64(&w.totalRows, 0)/secondsSinceOrOne(w.startTime))
}

// RenderStats returns the current snapshot for this step.
func (w *StepWatcher) RenderStats() Stats {
	statusText, statusEmoji := "complete", "\U00002705" // green tick
	if w.isRunning.Get() {
		statusText, statusEmoji = "running", "\U0000231B" // hour glass
	}
	return Stats{
		StepName:           w.stepName,
		StatusText:         statusText,
		StatusEmoji:        statusEmoji,
		ElapsedTimeSec:     int(time.Since(w.startTime).Seconds()),
		TotalRowsProcessed: int(atomic.AddInt64(&w.totalRows, 0)),
		RowsPerSecondAvg:   int(atomic.AddInt64(&w.rowsPerSecAvg, 0)),
		RowsPerSecondDelta: int(atomic.AddInt64(&w.rowsPerSecDelta, 0)),
		OutputBufferLen:    int(atomic.AddInt64(&w.chanLen, 0)),
	}
}

// String formats the stats one step per line for general logging.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats for %v %v %v "+
			"elapsedTimeSec=%v "+
			"totalRowsProcessed=%v "+
			"rowsPerSecondAvg=%v "+
			"rowsPerSecondDelta=%v "+
			"outputBufferLen=%v",
		s.StepName, s.StatusText, s.StatusEmoji,
		s.ElapsedTimeSec,
		s.TotalRowsProcessed,
		s.RowsPerSecondAvg,
		s.RowsPerSecondDelta,
		s.OutputBufferLen,
	)
}

func secondsSinceOrOne(t time.Time) int64 {
	seconds := int64(time.Since(t).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}
