package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/imfpipe/imfpipe/logger"
)

// StatsFetcher exposes step stats to the serve API.
type StatsFetcher interface {
	GetStats() []Stats
}

var DefaultStatsDumpFrequencySeconds = 5

// TransformStatsManager collects a StepWatcher per pipe step and dumps their
// stats on an interval. Step order is preserved so the dump reads in pipe
// order.
type TransformStatsManager struct {
	ticker              *time.Ticker
	tickerDone          chan struct{}
	tickerIsRunningFlag int32
	tickerFrequency     int
	mu                  sync.Mutex
	log                 logger.Logger
	mapStepStats        *ordered_map.OrderedMap // stepName -> *StepWatcher
}

// SetStatsDumpFrequency is an option for NewTransformStats that overrides the
// dump interval; zero disables dumping.
func SetStatsDumpFrequency(seconds int) func(t *TransformStatsManager) {
	return func(t *TransformStatsManager) {
		t.tickerFrequency = seconds
		DefaultStatsDumpFrequencySeconds = seconds
	}
}

func NewTransformStats(log logger.Logger, options ...func(t *TransformStatsManager)) *TransformStatsManager {
	t := &TransformStatsManager{log: log, tickerFrequency: DefaultStatsDumpFrequencySeconds}
	for _, option := range options {
		option(t)
	}
	t.tickerDone = make(chan struct{})
	t.mapStepStats = ordered_map.NewOrderedMap()
	return t
}

// AddStepWatcher registers and returns a watcher for the named step.
// TODO: make this return an interface and update all components to use the new interface instead.
func (t *TransformStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	sw := NewStepWatcher(t.log, stepName)
	t.mapStepStats.Set(stepName, sw)
	return sw
}

// StartDumping turns on the periodic stats dump. Safe to call more than once.
func (t *TransformStatsManager) StartDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if atomic.AddInt32(&t.tickerIsRunningFlag, 0) != 0 {
		t.log.Debug("stats dumper ticker already running")
		return
	}
	if t.tickerFrequency <= 0 {
		t.log.Debug("stats dumper disabled")
		return
	}
	t.ticker = time.NewTicker(time.Second * time.Duration(t.tickerFrequency))
	atomic.StoreInt32(&t.tickerIsRunningFlag, 1)
	go func() {
		t.log.Debug("stats dumper ticker started")
		for {
			select {
			case <-t.tickerDone:
				t.log.Debug("stats dumper ticker stopped")
				return
			case <-t.ticker.C:
				t.logStats()
			}
		}
	}()
}

// StopDumping stops the ticker and dumps final stats, if StartDumping started
// one.
func (t *TransformStatsManager) StopDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if atomic.AddInt32(&t.tickerIsRunningFlag, 0) == 0 {
		return
	}
	atomic.StoreInt32(&t.tickerIsRunningFlag, 0)
	t.ticker.Stop()
	t.tickerDone <- struct{}{} // the goroutine exits here; we can't close ticker.C.
	iter := t.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		kv.Value.(*StepWatcher).CalculateStats()
	}
	t.logStats()
}

func (t *TransformStatsManager) logStats() {
	iter := t.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		t.log.Warn(kv.Value.(*StepWatcher).RenderStats().String())
	}
}

// GetStats implements StatsFetcher.
func (t *TransformStatsManager) GetStats() []Stats {
	iter := t.mapStepStats.IterFunc()
	statsList := make([]Stats, 0)
	for kv, ok := iter(); ok; kv, ok = iter() {
		statsList = append(statsList, kv.Value.(*StepWatcher).RenderStats())
	}
	return statsList
}
