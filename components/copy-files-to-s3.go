package components

import (
	"os"
	"path"
	"strings"
	"sync/atomic"

	"github.com/imfpipe/imfpipe/aws/s3"
	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

type CopyFilesToS3Config struct {
	Log                        logger.Logger
	Name                       string
	InputChan                  chan stream.Record // rows naming local files (full paths) to upload.
	FileNameChanField          string             // input field holding the file path.
	BucketName                 string
	BucketPrefix               string
	Region                     string
	RemoveInputFiles           bool   // delete each local file once uploaded.
	OutputChanField4ObjectName string // optional output field for the S3 object name (file name minus local dir).
	StepWatcher                *stats.StepWatcher
	WaitCounter                ComponentWaiter
	PanicHandlerFn             PanicHandlerFunc
}

// NewCopyFilesToS3 uploads each file named on the input channel to S3 and
// forwards the record, optionally tagged with the uploaded object name so a
// downstream loader can reference the staged file. RemoveInputFiles turns the
// copy into a move.
func NewCopyFilesToS3(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CopyFilesToS3Config)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing chan input in call to NewCopyFilesToS3.")
	}
	if cfg.FileNameChanField == "" {
		cfg.Log.Panic(cfg.Name, " error - missing the field name used to find files on the input channel.")
	}
	if cfg.BucketName == "" {
		cfg.Log.Panic(cfg.Name, " error - missing target bucket name.")
	}
	cfg.BucketName = strings.TrimPrefix(cfg.BucketName, "s3://")
	if cfg.Region == "" {
		cfg.Log.Panic(cfg.Name, " error - missing AWS region.")
	}
	cfg.Log.Debug(cfg.Name, ": RemoveInputFiles = ", cfg.RemoveInputFiles)
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
		bucket := s3.NewBasicClient(cfg.BucketName, cfg.Region, cfg.BucketPrefix)
		action := "copying"
		if cfg.RemoveInputFiles {
			action = "moving"
		}
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok {
					cfg.InputChan = nil // disable this case.
					break
				}
				atomic.AddInt64(&rowCount, 1)
				filePath := rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.FileNameChanField)
				if filePath == "" {
					cfg.Log.Debug(cfg.Name, " no file found in input channel - skipping.")
					break
				}
				_, objectName := path.Split(filePath)
				f, err := os.Open(filePath)
				if err != nil {
					cfg.Log.Panic(cfg.Name, " error - unable to open file, ", objectName)
				}
				cfg.Log.Info(cfg.Name, " ", action, " file '", filePath, "' to S3 bucket '", path.Join(cfg.BucketName, cfg.BucketPrefix), "'")
				if err = bucket.BufferPut(objectName, f); err != nil {
					cfg.Log.Panic(err)
				}
				if err = f.Close(); err != nil {
					cfg.Log.Panic(cfg.Name, " unable to close file", objectName)
				}
				if cfg.RemoveInputFiles {
					if err := os.Remove(filePath); err != nil {
						cfg.Log.Panic(cfg.Name, " unable to remove OS file, ", filePath)
					}
					cfg.Log.Debug(cfg.Name, " removed file '", filePath, "'")
				}
				if cfg.OutputChanField4ObjectName != "" {
					rec.SetData(cfg.OutputChanField4ObjectName, objectName)
				}
				cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", rec)
				if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
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
	return
}
