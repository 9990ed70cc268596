package components

import (
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/imfpipe/imfpipe/aws/s3"
	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stats"
	"github.com/imfpipe/imfpipe/stream"
)

type S3BucketListerConfig struct {
	Log                               logger.Logger
	Name                              string
	Region                            string // AWS region for the bucket.
	BucketName                        string
	BucketPrefix                      string
	ObjectNamePrefix                  string // passed to the S3 list call; matches the start of object names, distinct from BucketPrefix.
	ObjectNameRegexp                  string // optional regexp applied to the listed names as a second filter.
	OutputField4FileName              string // empty picks the package Defaults value; same for the other OutputField4* below.
	OutputField4FileNameWithoutPrefix string
	OutputField4BucketName            string
	OutputField4BucketPrefix          string
	OutputField4BucketRegion          string
	StepWatcher                       *stats.StepWatcher
	WaitCounter                       ComponentWaiter
	PanicHandlerFn                    PanicHandlerFunc
}

// NewS3BucketList lists the objects in an S3 bucket and emits one record per
// matching object, carrying the object name plus the bucket coordinates so
// downstream steps can fetch or load it.
// TODO: add a test for filtering by filename prefix (not bucket prefix)
func NewS3BucketList(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*S3BucketListerConfig)
	outputChan = make(chan stream.Record, int(c.ChanSize))
	controlChan = make(chan ControlAction, 1)
	if cfg.BucketName == "" {
		cfg.Log.Panic(cfg.Name, " error - missing target bucket name.")
	}
	cfg.BucketName = strings.TrimPrefix(cfg.BucketName, "s3://")
	if cfg.Region == "" {
		cfg.Log.Panic(cfg.Name, " error - missing AWS region.")
	}
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		applyFieldDefault(cfg.Log, cfg.Name, &cfg.OutputField4FileName, Defaults.ChanField4FileName, "file name(s)")
		applyFieldDefault(cfg.Log, cfg.Name, &cfg.OutputField4FileNameWithoutPrefix, Defaults.ChanField4FileNameWithoutPrefix, "file name(s) without prefix")
		applyFieldDefault(cfg.Log, cfg.Name, &cfg.OutputField4BucketName, Defaults.ChanField4BucketName, "S3 bucket name")
		applyFieldDefault(cfg.Log, cfg.Name, &cfg.OutputField4BucketPrefix, Defaults.ChanField4BucketPrefix, "S3 prefix")
		applyFieldDefault(cfg.Log, cfg.Name, &cfg.OutputField4BucketRegion, Defaults.ChanField4BucketRegion, "S3 region")
		cfg.Log.Info(cfg.Name, " is running for bucket '", cfg.BucketName, "' region '", cfg.Region, "' prefix '", cfg.BucketPrefix, "' regex filter '", cfg.ObjectNameRegexp, "'")
		bucket := s3.NewBasicClient(cfg.BucketName, cfg.Region, cfg.BucketPrefix)
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		var nameFilter *regexp.Regexp
		cfg.Log.Debug(cfg.Name, " regexp: ", cfg.ObjectNameRegexp)
		if cfg.ObjectNameRegexp != "" {
			var err error
			nameFilter, err = regexp.Compile(cfg.ObjectNameRegexp)
			if err != nil {
				cfg.Log.Panic(err)
			}
		} else {
			cfg.Log.Debug(cfg.Name, " missing regexp - ignoring regex file name filtering.")
		}
		keys, err := bucket.List(cfg.ObjectNamePrefix) // the client appends BucketPrefix internally.
		if err != nil {
			cfg.Log.Panic(cfg.Name, " unable to list S3 bucket '", cfg.BucketName, "' in region '", cfg.Region, "' with prefix '", cfg.BucketPrefix, "': ", err)
		}
		for _, key := range keys {
			if nameFilter != nil && !nameFilter.MatchString(key) {
				cfg.Log.Trace(cfg.Name, " no match for file - skipped: ", key)
				continue
			}
			cfg.Log.Debug(cfg.Name, " - producing record for file '", key, "' onto output channel")
			rec := stream.NewRecord()
			rec.SetData(cfg.OutputField4FileName, key)
			rec.SetData(cfg.OutputField4FileNameWithoutPrefix, strings.TrimPrefix(strings.TrimPrefix(key, cfg.BucketPrefix), "/"))
			rec.SetData(cfg.OutputField4BucketName, cfg.BucketName)
			rec.SetData(cfg.OutputField4BucketPrefix, cfg.BucketPrefix)
			rec.SetData(cfg.OutputField4BucketRegion, cfg.Region)
			// Shutdown requests are handled inside safeSend().
			if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			atomic.AddInt64(&rowCount, 1)
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

func applyFieldDefault(log logger.Logger, stepName string, field *string, defaultValue string, what string) {
	if *field == "" {
		*field = defaultValue
		log.Info(stepName, " output field for ", what, " not supplied, using default value ", defaultValue)
	}
}
