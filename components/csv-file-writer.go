package components

import (
	"fmt"
	"sync/atomic"
	"time"

	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/file"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

type CsvFileWriterConfig struct {
	Log                               logger.Logger
	Name                              string
	InputChan                         chan stream.Record // rows to write out as CSV.
	OutputDir                         string             // empty means a generated dir in OS temp space.
	FileNamePrefix                    string
	FileNameSuffixAppendCreationStamp bool
	FileNameSuffixDateFormat          string
	FileNameExtension                 string
	UseGzip                           bool
	MaxFileRows                       int
	MaxFileBytes                      int
	HeaderFields                      []string // input record fields written as the CSV header, in column order.
	OutputChanField4FilePath          string   // output record field holding each finished file name.
	StepWatcher                       *stats.StepWatcher
	WaitCounter                       ComponentWaiter
	PanicHandlerFn                    PanicHandlerFunc
}

// NewCsvFileWriter writes input records to rotating CSV files and emits one
// output record per finished file, carrying its path. HeaderFields defines
// both the header row and the order the record fields are written in.
// A file name only goes downstream once the file is closed, so consumers can
// safely upload it.
func NewCsvFileWriter(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CsvFileWriterConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if cfg.OutputChanField4FilePath == "" {
		cfg.OutputChanField4FilePath = Defaults.ChanField4CSVFileName
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
		cfg.Log.Info(cfg.Name, " is running")
		prefix := cfg.FileNamePrefix
		if cfg.FileNameSuffixAppendCreationStamp {
			if cfg.FileNameSuffixDateFormat == "" {
				cfg.FileNameSuffixDateFormat = c.TimeFormatYearSeconds
			}
			prefix = fmt.Sprintf("%v-%v", cfg.FileNamePrefix, time.Now().Format(cfg.FileNameSuffixDateFormat))
		}
		cfg.Log.Debug(cfg.Name, " starting CSV output: dir=", cfg.OutputDir, "; prefix=", prefix, "; extension=", cfg.FileNameExtension, "; maxFileRows=", cfg.MaxFileRows, "; maxFileBytes=", cfg.MaxFileBytes)
		writer := file.NewCSVFileOutput(cfg.Log, cfg.OutputDir, prefix, cfg.FileNameExtension, cfg.MaxFileRows, cfg.MaxFileBytes, cfg.UseGzip)
		defer writer.Cleanup()
		var rowCount int64
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		emitFileName := func(name string, closeFirst bool) (sentOK bool) {
			if closeFirst {
				writer.Cleanup() // close the last CSV file before announcing it.
			}
			out := stream.NewRecord()
			out.SetData(cfg.OutputChanField4FilePath, name)
			cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", out)
			return safeSend(out, outputChan, controlChan, sendNilControlResponse)
		}
		headerPending := true
		var closedFile, openFile string
		var announceClosed bool
		var ctl ControlAction
		for controlChan != nil && cfg.InputChan != nil {
			select {
			case ctl = <-controlChan:
				controlChan = nil
				continue
			case rec, ok := <-cfg.InputChan:
				if !ok {
					cfg.InputChan = nil // disable this case.
					continue
				}
				if headerPending {
					writer.SetHeader(cfg.HeaderFields)
					headerPending = false
				}
				atomic.AddInt64(&rowCount, 1)
				// TODO: build a new CSV writer that doesn't require a new copy of values in our map[string]interface{}.  We should get this to use pointers to increase performance.
				newFile := writer.MustWriteToCSV(rec.GetDataKeysAsSlice(cfg.Log, cfg.HeaderFields))
				if newFile != "" { // rotation produced a new file.
					closedFile = openFile
					openFile = newFile
					announceClosed = closedFile != "" // the previous file is complete now.
				}
				if announceClosed {
					if !emitFileName(closedFile, false) {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
					announceClosed = false
				}
			}
		}
		if ctl.Action == Shutdown {
			ctl.ResponseChan <- nil
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		// End of input: flush and announce the final file.
		if openFile != "" {
			if !emitFileName(openFile, true) {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
