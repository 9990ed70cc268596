package components

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/diegoholiveira/jsonlogic"
	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/helper"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

type FilterType string
type FilterMetadata string

type filterSetupFunc func(log logger.Logger, metadata FilterMetadata) (filterFunc, error)

// filterFunc is fed each input record; a nil record signals end of stream so
// stateful filters can emit their result.
type filterFunc func(data stream.Record) (stream.Record, error)

const (
	filterRowsGetMax          = "GetMax"
	filterRowsLastRowInStream = "LastRow"
	filterRowsJsonLogic       = "JsonLogic"
	filterRowsAbortAfter      = "AbortAfter"
)

var filterTypes = map[FilterType]filterSetupFunc{
	filterRowsGetMax:          setupFilterGetMax,     // metadata names the field whose max is tracked.
	filterRowsLastRowInStream: setupLastRowInStream,  // metadata unused.
	filterRowsJsonLogic:       setupJsonLogicFilter,  // metadata is the JsonLogic rule.
	filterRowsAbortAfter:      setupAbortAfterFilter, // metadata is the max record count.
}

var errFilterAbortAfterExceededCount = errors.New("record count exceeded")

type FilterRowsConfig struct {
	Log            logger.Logger
	Name           string
	InputChan      chan stream.Record
	FilterType     FilterType     // one of the keys in the filterTypes map.
	FilterMetadata FilterMetadata // filter-specific configuration, see filterTypes.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewFilterRows forwards input records that pass the configured filter.
func NewFilterRows(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*FilterRowsConfig)
	setup, found := filterTypes[cfg.FilterType]
	if !found {
		cfg.Log.Panic("unable to find filter function using name ", cfg.FilterType)
	}
	apply, err := setup(cfg.Log, cfg.FilterMetadata)
	if err != nil {
		cfg.Log.Panic("unable to setup filter %v: ", cfg.FilterType, err)
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		var rowCount int64
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		cfg.Log.Info(cfg.Name, " is running")
		filterAndForward := func(rec stream.Record) {
			out, err := apply(rec)
			if err != nil { // a filter may fail deliberately, e.g. AbortAfter.
				cfg.Log.Panic(cfg.Name, " aborting due to error: ", err)
			}
			if !out.RecordIsNil() {
				safeSend(out, outputChan, controlChan, sendNilControlResponse)
			}
		}
		var ctl ControlAction
		for cfg.InputChan != nil && ctl.Action != Shutdown {
			select {
			case ctl = <-controlChan:
			case rec, ok := <-cfg.InputChan:
				if !ok {
					cfg.InputChan = nil // disable this case.
					continue
				}
				filterAndForward(rec)
				atomic.AddInt64(&rowCount, 1)
			}
		}
		if ctl.Action == Shutdown {
			ctl.ResponseChan <- nil
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		if atomic.AddInt64(&rowCount, 0) > 0 {
			// End of stream: give stateful filters the chance to emit.
			filterAndForward(stream.NewNilRecord())
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

// setupFilterGetMax tracks the record holding the maximum value of the field
// named in metadata, comparing string renderings with times in UTC. The saved
// record is emitted when the end-of-stream nil record arrives.
func setupFilterGetMax(log logger.Logger, metadata FilterMetadata) (filterFunc, error) {
	best := make(map[string]interface{})
	var bestValue string
	seeded := false
	return func(data stream.Record) (stream.Record, error) {
		if data.RecordIsNil() { // end of stream: emit the max record.
			out := recordFromMap(best)
			log.Trace("setupFilterGetMax found max record: ", out.GetDataMap()) // TODO: replace trace dump of map with ability to debug a step output at will.
			return out, nil
		}
		fields := data.GetDataMap()
		candidate := helper.GetStringFromInterfaceUseUtcTime(log, fields[string(metadata)])
		if !seeded || candidate > bestValue {
			for key, value := range fields {
				best[key] = value
			}
			bestValue = candidate
			seeded = true
		}
		return stream.NewNilRecord(), nil
	}, nil
}

// setupLastRowInStream remembers each record and emits the final one when the
// end-of-stream nil record arrives.
func setupLastRowInStream(log logger.Logger, metadata FilterMetadata) (filterFunc, error) {
	last := make(map[string]interface{})
	return func(data stream.Record) (stream.Record, error) {
		if data.RecordIsNil() {
			return recordFromMap(last), nil
		}
		for key, value := range data.GetDataMap() {
			last[key] = value
		}
		return stream.NewNilRecord(), nil
	}, nil
}

// setupJsonLogicFilter passes records for which the JsonLogic rule in
// metadata evaluates to true against the record's data map.
func setupJsonLogicFilter(log logger.Logger, metadata FilterMetadata) (filterFunc, error) {
	var outcome bytes.Buffer
	rule := string(metadata)
	if !jsonlogic.IsValid(strings.NewReader(rule)) {
		return nil, fmt.Errorf("invalid %v rule: %v", filterRowsJsonLogic, metadata)
	}
	return func(data stream.Record) (stream.Record, error) {
		if data.RecordIsNil() {
			return stream.NewNilRecord(), nil
		}
		outcome.Reset()
		if err := applyJsonLogic(data, rule, &outcome); err != nil {
			log.Panic(err)
		}
		if strings.TrimSpace(outcome.String()) != "true" {
			return stream.NewNilRecord(), nil
		}
		return data, nil
	}, nil
}

// setupAbortAfterFilter passes records through but errors once more than
// metadata records have been seen. A max of 0 disables the limit.
func setupAbortAfterFilter(log logger.Logger, metadata FilterMetadata) (filterFunc, error) {
	limit, err := strconv.Atoi(string(metadata))
	if err != nil {
		return nil, fmt.Errorf("error converting filter metadata value '%v' to an integer: %w", metadata, err)
	}
	seen := 0
	return func(data stream.Record) (stream.Record, error) {
		if !data.RecordIsNil() {
			seen++
			if limit != 0 && seen > limit {
				return stream.NewNilRecord(), errFilterAbortAfterExceededCount
			}
		}
		return data, nil
	}, nil
}

// recordFromMap copies the accumulated fields into a fresh Record.
func recordFromMap(fields map[string]interface{}) stream.Record {
	out := stream.NewRecord()
	for key, value := range fields {
		out.SetData(key, value)
	}
	return out
}

// applyJsonLogic marshals the record's data map to JSON and applies the rule,
// writing the outcome to result.
func applyJsonLogic(data stream.Record, rule string, result *bytes.Buffer) error {
	jsonData, err := json.Marshal(data.GetDataMap())
	if err != nil {
		return fmt.Errorf("error marshalling data before applying JSON logic: %v", err)
	}
	err = jsonlogic.Apply(strings.NewReader(rule), strings.NewReader(string(jsonData)), result)
	if err != nil {
		return fmt.Errorf("error applying JSON logic: %v", err)
	}
	return nil
}
